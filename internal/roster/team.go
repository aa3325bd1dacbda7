package roster

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Team is a roster-site team identifier such as "los-angeles-lakers".
type Team struct {
	ID string
}

// NewTeam wraps a raw identifier, trimming surrounding whitespace.
func NewTeam(id string) Team {
	return Team{ID: strings.TrimSpace(id)}
}

// DisplayName renders the identifier as a title-cased name, e.g.
// "philadelphia-76ers" becomes "Philadelphia 76ers".
func (t Team) DisplayName() string {
	words := strings.FieldsFunc(t.ID, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// String implements fmt.Stringer.
func (t Team) String() string {
	return t.ID
}

// DefaultTeams lists the identifiers for the thirty current NBA franchises in
// the order the site's team index shows them.
var DefaultTeams = []string{
	"atlanta-hawks",
	"boston-celtics",
	"brooklyn-nets",
	"charlotte-hornets",
	"chicago-bulls",
	"cleveland-cavaliers",
	"dallas-mavericks",
	"denver-nuggets",
	"detroit-pistons",
	"golden-state-warriors",
	"houston-rockets",
	"indiana-pacers",
	"los-angeles-clippers",
	"los-angeles-lakers",
	"memphis-grizzlies",
	"miami-heat",
	"milwaukee-bucks",
	"minnesota-timberwolves",
	"new-orleans-pelicans",
	"new-york-knicks",
	"oklahoma-city-thunder",
	"orlando-magic",
	"philadelphia-76ers",
	"phoenix-suns",
	"portland-trail-blazers",
	"sacramento-kings",
	"san-antonio-spurs",
	"toronto-raptors",
	"utah-jazz",
	"washington-wizards",
}
