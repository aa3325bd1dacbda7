package extract

import "github.com/JakeFAU/roster-crawler/internal/roster"

// slot binds one ordinal position in a node list to a record field.
type slot struct {
	Field string
	Ref   func(p *roster.Player) **int
}

// attributeSchema is the order in which attribute boxes appear on a
// player detail page.
var attributeSchema = []slot{
	{"closeShot", func(p *roster.Player) **int { return &p.CloseShot }},
	{"midRangeShot", func(p *roster.Player) **int { return &p.MidRangeShot }},
	{"threePointShot", func(p *roster.Player) **int { return &p.ThreePointShot }},
	{"freeThrow", func(p *roster.Player) **int { return &p.FreeThrow }},
	{"shotIQ", func(p *roster.Player) **int { return &p.ShotIQ }},
	{"offensiveConsistency", func(p *roster.Player) **int { return &p.OffensiveConsistency }},

	{"speed", func(p *roster.Player) **int { return &p.Speed }},
	{"agility", func(p *roster.Player) **int { return &p.Agility }},
	{"strength", func(p *roster.Player) **int { return &p.Strength }},
	{"vertical", func(p *roster.Player) **int { return &p.Vertical }},
	{"stamina", func(p *roster.Player) **int { return &p.Stamina }},
	{"hustle", func(p *roster.Player) **int { return &p.Hustle }},
	{"overallDurability", func(p *roster.Player) **int { return &p.OverallDurability }},

	{"layup", func(p *roster.Player) **int { return &p.Layup }},
	{"standingDunk", func(p *roster.Player) **int { return &p.StandingDunk }},
	{"drivingDunk", func(p *roster.Player) **int { return &p.DrivingDunk }},
	{"postHook", func(p *roster.Player) **int { return &p.PostHook }},
	{"postFade", func(p *roster.Player) **int { return &p.PostFade }},
	{"postControl", func(p *roster.Player) **int { return &p.PostControl }},
	{"drawFoul", func(p *roster.Player) **int { return &p.DrawFoul }},
	{"hands", func(p *roster.Player) **int { return &p.Hands }},

	{"passAccuracy", func(p *roster.Player) **int { return &p.PassAccuracy }},
	{"ballHandle", func(p *roster.Player) **int { return &p.BallHandle }},
	{"speedWithBall", func(p *roster.Player) **int { return &p.SpeedWithBall }},
	{"passIQ", func(p *roster.Player) **int { return &p.PassIQ }},
	{"passVision", func(p *roster.Player) **int { return &p.PassVision }},

	{"interiorDefense", func(p *roster.Player) **int { return &p.InteriorDefense }},
	{"perimeterDefense", func(p *roster.Player) **int { return &p.PerimeterDefense }},
	{"steal", func(p *roster.Player) **int { return &p.Steal }},
	{"block", func(p *roster.Player) **int { return &p.Block }},
	{"helpDefenseIQ", func(p *roster.Player) **int { return &p.HelpDefenseIQ }},
	{"passPerception", func(p *roster.Player) **int { return &p.PassPerception }},
	{"defensiveConsistency", func(p *roster.Player) **int { return &p.DefensiveConsistency }},

	{"offensiveRebound", func(p *roster.Player) **int { return &p.OffensiveRebound }},
	{"defensiveRebound", func(p *roster.Player) **int { return &p.DefensiveRebound }},
}

// badgeTierSchema is the order of the .badge-count nodes.
var badgeTierSchema = []slot{
	{"legendaryBadgeCount", func(p *roster.Player) **int { return &p.Badges.Legendary }},
	{"purpleBadgeCount", func(p *roster.Player) **int { return &p.Badges.Purple }},
	{"goldBadgeCount", func(p *roster.Player) **int { return &p.Badges.Gold }},
	{"silverBadgeCount", func(p *roster.Player) **int { return &p.Badges.Silver }},
	{"bronzeBadgeCount", func(p *roster.Player) **int { return &p.Badges.Bronze }},
	{"badgeCount", func(p *roster.Player) **int { return &p.Badges.Total }},
}

// badgeTab maps a badge category tab to its count field. Tabs carry their
// count as "Label (N)".
type badgeTab struct {
	Field    string
	Selector string
	Ref      func(p *roster.Player) **int
}

var badgeTabs = []badgeTab{
	{"outsideScoringBadgeCount", "#pills-outscoring-tab", func(p *roster.Player) **int { return &p.Badges.OutsideScoring }},
	{"insideScoringBadgeCount", "#pills-inscoring-tab", func(p *roster.Player) **int { return &p.Badges.InsideScoring }},
	{"playmakingBadgeCount", "#pills-playmaking-tab", func(p *roster.Player) **int { return &p.Badges.Playmaking }},
	{"defensiveBadgeCount", "#pills-defense-tab", func(p *roster.Player) **int { return &p.Badges.Defensive }},
	{"reboundingBadgeCount", "#pills-rebounding-tab", func(p *roster.Player) **int { return &p.Badges.Rebounding }},
	{"generalOffenseBadgeCount", "#pills-genoffense-tab", func(p *roster.Player) **int { return &p.Badges.GeneralOffense }},
	{"allAroundBadgeCount", "#pills-allaround-tab", func(p *roster.Player) **int { return &p.Badges.AllAround }},
}

// AttributeFields lists the attribute names in page order.
func AttributeFields() []string {
	names := make([]string, len(attributeSchema))
	for i, s := range attributeSchema {
		names[i] = s.Field
	}
	return names
}
