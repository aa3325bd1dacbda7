// Package extract turns rendered roster and player pages into domain values.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Selectors for the roster site's markup.
const (
	RosterTableSelector = "tbody"
	RosterRowSelector   = ".entry-font"
	NameSelector        = "h1"
	OverallSelector     = ".attribute-box-player"
	AttributeSelector   = ".content .card .card-body .list-no-bullet li .attribute-box"
	BadgeTierSelector   = ".badge-count"
	SubtitleSelector    = ".header-subtitle"
)

var (
	positionPath = []int{4, 1, 0}
	heightPath   = []int{6, 1, 0}
)

// Extractor parses documents with goquery. It is stateless and safe for
// concurrent use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// RosterLinks returns the player hrefs listed in the first roster table, in
// page order. A page without any link is treated as a structural failure;
// it is usually a challenge page rather than an empty team.
func (x *Extractor) RosterLinks(document string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse roster document: %w", err)
	}
	table := doc.Find(RosterTableSelector).First()
	if table.Length() == 0 {
		return nil, &StructuralError{Field: "roster", Index: -1, Selector: RosterTableSelector}
	}
	var links []string
	table.Find(RosterRowSelector).Each(func(_ int, row *goquery.Selection) {
		row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
				links = append(links, strings.TrimSpace(href))
			}
		})
	})
	if len(links) == 0 {
		return nil, &StructuralError{Field: "roster", Index: -1, Selector: RosterRowSelector + " a[href]"}
	}
	return links, nil
}

// PlayerDetail extracts one player record from a detail page. team is the
// display name of the team the player was listed under. Unparseable numeric
// fields are returned as defects; missing structure is an error.
func (x *Extractor) PlayerDetail(document string, team string) (roster.Player, []FieldDefect, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return roster.Player{}, nil, fmt.Errorf("parse player document: %w", err)
	}

	p := roster.Player{Team: team}
	p.Name = strings.TrimSpace(doc.Find(NameSelector).First().Text())
	if p.Name == "" {
		return roster.Player{}, nil, &StructuralError{Field: "name", Index: -1, Selector: NameSelector}
	}

	var defects []FieldDefect
	overallRaw := strings.TrimSpace(doc.Find(OverallSelector).First().Text())
	if n, ok := leadingInt(overallRaw); ok {
		p.Overall = &n
	} else {
		defects = append(defects, FieldDefect{Field: "overallAttribute", Raw: overallRaw})
	}

	attrs := doc.Find(AttributeSelector)
	d, err := bind(&p, attrs, attributeSchema, AttributeSelector)
	if err != nil {
		return roster.Player{}, nil, err
	}
	defects = append(defects, d...)

	tiers := doc.Find(BadgeTierSelector)
	d, err = bind(&p, tiers, badgeTierSchema, BadgeTierSelector)
	if err != nil {
		return roster.Player{}, nil, err
	}
	defects = append(defects, d...)

	for _, tab := range badgeTabs {
		*tab.Ref(&p) = tabCount(doc.Find(tab.Selector).First())
	}

	subtitle := doc.Find(SubtitleSelector).First()
	if subtitle.Length() == 0 {
		return roster.Player{}, nil, &StructuralError{Field: "position", Index: -1, Selector: SubtitleSelector}
	}
	root := subtitle.Get(0)
	pos := nodePath(root, positionPath...)
	if pos == nil || pos.Type != html.TextNode {
		return roster.Player{}, nil, &StructuralError{Field: "position", Index: positionPath[0], Selector: SubtitleSelector}
	}
	height := nodePath(root, heightPath...)
	if height == nil || height.Type != html.TextNode {
		return roster.Player{}, nil, &StructuralError{Field: "height", Index: heightPath[0], Selector: SubtitleSelector}
	}
	p.Position = strings.TrimSpace(pos.Data)
	p.Height = strings.TrimSpace(height.Data)

	return p, defects, nil
}

// bind assigns each schema slot from the node at the same position. The
// list must be at least as long as the schema; extra nodes are ignored.
func bind(p *roster.Player, nodes *goquery.Selection, schema []slot, selector string) ([]FieldDefect, error) {
	if nodes.Length() < len(schema) {
		missing := nodes.Length()
		return nil, &StructuralError{Field: schema[missing].Field, Index: missing, Selector: selector}
	}
	var defects []FieldDefect
	for i, s := range schema {
		raw := firstText(nodes.Get(i))
		n, ok := leadingInt(raw)
		if !ok {
			*s.Ref(p) = nil
			defects = append(defects, FieldDefect{Field: s.Field, Raw: raw})
			continue
		}
		*s.Ref(p) = &n
	}
	return defects, nil
}
