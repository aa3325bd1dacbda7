package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var tabCountPattern = regexp.MustCompile(`\((\d+)\)`)

// leadingInt parses the leading decimal integer of s after trimming, so
// "87 (+2)" yields 87. An optional sign is accepted.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// firstText returns the data of the node's first child when that child is a
// text node, or "" otherwise.
func firstText(n *html.Node) string {
	if n == nil || n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(n.FirstChild.Data)
}

// childAt returns the i-th child node of n, counting text nodes.
func childAt(n *html.Node, i int) *html.Node {
	if n == nil || i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// nodePath walks child indices from root.
func nodePath(root *html.Node, path ...int) *html.Node {
	n := root
	for _, i := range path {
		n = childAt(n, i)
		if n == nil {
			return nil
		}
	}
	return n
}

func tabCount(sel *goquery.Selection) *int {
	m := tabCountPattern.FindStringSubmatch(sel.Text())
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
