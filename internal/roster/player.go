// Package roster holds the domain types harvested from the roster site.
package roster

// Player is one harvested player-attribute record. Numeric fields are nil
// when the page did not carry a parseable integer for them.
type Player struct {
	Name     string
	Team     string
	Position string
	Height   string
	Overall  *int

	// Outside scoring.
	CloseShot            *int
	MidRangeShot         *int
	ThreePointShot       *int
	FreeThrow            *int
	ShotIQ               *int
	OffensiveConsistency *int

	// Athleticism.
	Speed             *int
	Agility           *int
	Strength          *int
	Vertical          *int
	Stamina           *int
	Hustle            *int
	OverallDurability *int

	// Inside scoring.
	Layup        *int
	StandingDunk *int
	DrivingDunk  *int
	PostHook     *int
	PostFade     *int
	PostControl  *int
	DrawFoul     *int
	Hands        *int

	// Playmaking.
	PassAccuracy  *int
	BallHandle    *int
	SpeedWithBall *int
	PassIQ        *int
	PassVision    *int

	// Defense.
	InteriorDefense      *int
	PerimeterDefense     *int
	Steal                *int
	Block                *int
	HelpDefenseIQ        *int
	PassPerception       *int
	DefensiveConsistency *int

	// Rebounding.
	OffensiveRebound *int
	DefensiveRebound *int

	Badges BadgeCounts
}

// BadgeCounts groups the tier totals and per-category totals shown on a
// player's badge panel.
type BadgeCounts struct {
	Legendary *int
	Purple    *int
	Gold      *int
	Silver    *int
	Bronze    *int
	Total     *int

	OutsideScoring *int
	InsideScoring  *int
	Playmaking     *int
	Defensive      *int
	Rebounding     *int
	GeneralOffense *int
	AllAround      *int
}

// HasIdentity reports whether the record carries the fields required to key
// it: a name and a team.
func (p Player) HasIdentity() bool {
	return p.Name != "" && p.Team != ""
}

// OverallValue returns the overall rating and whether it is present.
func (p Player) OverallValue() (int, bool) {
	if p.Overall == nil {
		return 0, false
	}
	return *p.Overall, true
}

// Int returns a pointer to v. Handy for building records in code and tests.
func Int(v int) *int {
	return &v
}
