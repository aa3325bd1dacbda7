package snapshot

import (
	"cmp"
	"slices"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// ByTeam returns players grouped by team name ascending, strongest overall
// first within a team. The input is not modified and ties keep input order.
func ByTeam(players []roster.Player) []roster.Player {
	out := slices.Clone(players)
	slices.SortStableFunc(out, func(a, b roster.Player) int {
		if c := cmp.Compare(a.Team, b.Team); c != 0 {
			return c
		}
		return compareOverallDesc(a, b)
	})
	return out
}

// ByLeague returns players ordered by overall descending across the league.
// Players without an overall sort last; ties keep input order.
func ByLeague(players []roster.Player) []roster.Player {
	out := slices.Clone(players)
	slices.SortStableFunc(out, compareOverallDesc)
	return out
}

func compareOverallDesc(a, b roster.Player) int {
	av, aok := a.OverallValue()
	bv, bok := b.OverallValue()
	switch {
	case aok && bok:
		return cmp.Compare(bv, av)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}
