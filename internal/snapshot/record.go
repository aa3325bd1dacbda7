// Package snapshot projects crawl results into the persisted JSON views and
// writes them through a storage backend.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Record is the persisted shape of a player. Field order is the file format.
type Record struct {
	Name             string `json:"name"`
	Team             string `json:"team"`
	Position         string `json:"position"`
	Height           string `json:"height"`
	OverallAttribute *int   `json:"overallAttribute"`

	CloseShot            *int `json:"closeShot"`
	MidRangeShot         *int `json:"midRangeShot"`
	ThreePointShot       *int `json:"threePointShot"`
	FreeThrow            *int `json:"freeThrow"`
	ShotIQ               *int `json:"shotIQ"`
	OffensiveConsistency *int `json:"offensiveConsistency"`

	Layup        *int `json:"layup"`
	StandingDunk *int `json:"standingDunk"`
	DrivingDunk  *int `json:"drivingDunk"`
	PostHook     *int `json:"postHook"`
	PostFade     *int `json:"postFade"`
	PostControl  *int `json:"postControl"`
	DrawFoul     *int `json:"drawFoul"`
	Hands        *int `json:"hands"`

	PassAccuracy  *int `json:"passAccuracy"`
	BallHandle    *int `json:"ballHandle"`
	SpeedWithBall *int `json:"speedWithBall"`
	PassIQ        *int `json:"passIQ"`
	PassVision    *int `json:"passVision"`

	InteriorDefense      *int `json:"interiorDefense"`
	PerimeterDefense     *int `json:"perimeterDefense"`
	Steal                *int `json:"steal"`
	Block                *int `json:"block"`
	HelpDefenseIQ        *int `json:"helpDefenseIQ"`
	PassPerception       *int `json:"passPerception"`
	DefensiveConsistency *int `json:"defensiveConsistency"`

	OffensiveRebound *int `json:"offensiveRebound"`
	DefensiveRebound *int `json:"defensiveRebound"`

	Speed             *int `json:"speed"`
	Agility           *int `json:"agility"`
	Strength          *int `json:"strength"`
	Vertical          *int `json:"vertical"`
	Stamina           *int `json:"stamina"`
	Hustle            *int `json:"hustle"`
	OverallDurability *int `json:"overallDurability"`

	LegendaryBadgeCount      *int `json:"legendaryBadgeCount"`
	PurpleBadgeCount         *int `json:"purpleBadgeCount"`
	GoldBadgeCount           *int `json:"goldBadgeCount"`
	SilverBadgeCount         *int `json:"silverBadgeCount"`
	BronzeBadgeCount         *int `json:"bronzeBadgeCount"`
	BadgeCount               *int `json:"badgeCount"`
	OutsideScoringBadgeCount *int `json:"outsideScoringBadgeCount"`
	InsideScoringBadgeCount  *int `json:"insideScoringBadgeCount"`
	PlaymakingBadgeCount     *int `json:"playmakingBadgeCount"`
	DefensiveBadgeCount      *int `json:"defensiveBadgeCount"`
	ReboundingBadgeCount     *int `json:"reboundingBadgeCount"`
	GeneralOffenseBadgeCount *int `json:"generalOffenseBadgeCount"`
	AllAroundBadgeCount      *int `json:"allAroundBadgeCount"`
}

// FromPlayer projects a player into its persisted shape.
func FromPlayer(p roster.Player) Record {
	return Record{
		Name:             p.Name,
		Team:             p.Team,
		Position:         p.Position,
		Height:           p.Height,
		OverallAttribute: p.Overall,

		CloseShot:            p.CloseShot,
		MidRangeShot:         p.MidRangeShot,
		ThreePointShot:       p.ThreePointShot,
		FreeThrow:            p.FreeThrow,
		ShotIQ:               p.ShotIQ,
		OffensiveConsistency: p.OffensiveConsistency,

		Layup:        p.Layup,
		StandingDunk: p.StandingDunk,
		DrivingDunk:  p.DrivingDunk,
		PostHook:     p.PostHook,
		PostFade:     p.PostFade,
		PostControl:  p.PostControl,
		DrawFoul:     p.DrawFoul,
		Hands:        p.Hands,

		PassAccuracy:  p.PassAccuracy,
		BallHandle:    p.BallHandle,
		SpeedWithBall: p.SpeedWithBall,
		PassIQ:        p.PassIQ,
		PassVision:    p.PassVision,

		InteriorDefense:      p.InteriorDefense,
		PerimeterDefense:     p.PerimeterDefense,
		Steal:                p.Steal,
		Block:                p.Block,
		HelpDefenseIQ:        p.HelpDefenseIQ,
		PassPerception:       p.PassPerception,
		DefensiveConsistency: p.DefensiveConsistency,

		OffensiveRebound: p.OffensiveRebound,
		DefensiveRebound: p.DefensiveRebound,

		Speed:             p.Speed,
		Agility:           p.Agility,
		Strength:          p.Strength,
		Vertical:          p.Vertical,
		Stamina:           p.Stamina,
		Hustle:            p.Hustle,
		OverallDurability: p.OverallDurability,

		LegendaryBadgeCount:      p.Badges.Legendary,
		PurpleBadgeCount:         p.Badges.Purple,
		GoldBadgeCount:           p.Badges.Gold,
		SilverBadgeCount:         p.Badges.Silver,
		BronzeBadgeCount:         p.Badges.Bronze,
		BadgeCount:               p.Badges.Total,
		OutsideScoringBadgeCount: p.Badges.OutsideScoring,
		InsideScoringBadgeCount:  p.Badges.InsideScoring,
		PlaymakingBadgeCount:     p.Badges.Playmaking,
		DefensiveBadgeCount:      p.Badges.Defensive,
		ReboundingBadgeCount:     p.Badges.Rebounding,
		GeneralOffenseBadgeCount: p.Badges.GeneralOffense,
		AllAroundBadgeCount:      p.Badges.AllAround,
	}
}

// Player converts a persisted record back into the domain type.
func (r Record) Player() roster.Player {
	return roster.Player{
		Name:     r.Name,
		Team:     r.Team,
		Position: r.Position,
		Height:   r.Height,
		Overall:  r.OverallAttribute,

		CloseShot:            r.CloseShot,
		MidRangeShot:         r.MidRangeShot,
		ThreePointShot:       r.ThreePointShot,
		FreeThrow:            r.FreeThrow,
		ShotIQ:               r.ShotIQ,
		OffensiveConsistency: r.OffensiveConsistency,

		Speed:             r.Speed,
		Agility:           r.Agility,
		Strength:          r.Strength,
		Vertical:          r.Vertical,
		Stamina:           r.Stamina,
		Hustle:            r.Hustle,
		OverallDurability: r.OverallDurability,

		Layup:        r.Layup,
		StandingDunk: r.StandingDunk,
		DrivingDunk:  r.DrivingDunk,
		PostHook:     r.PostHook,
		PostFade:     r.PostFade,
		PostControl:  r.PostControl,
		DrawFoul:     r.DrawFoul,
		Hands:        r.Hands,

		PassAccuracy:  r.PassAccuracy,
		BallHandle:    r.BallHandle,
		SpeedWithBall: r.SpeedWithBall,
		PassIQ:        r.PassIQ,
		PassVision:    r.PassVision,

		InteriorDefense:      r.InteriorDefense,
		PerimeterDefense:     r.PerimeterDefense,
		Steal:                r.Steal,
		Block:                r.Block,
		HelpDefenseIQ:        r.HelpDefenseIQ,
		PassPerception:       r.PassPerception,
		DefensiveConsistency: r.DefensiveConsistency,

		OffensiveRebound: r.OffensiveRebound,
		DefensiveRebound: r.DefensiveRebound,

		Badges: roster.BadgeCounts{
			Legendary:      r.LegendaryBadgeCount,
			Purple:         r.PurpleBadgeCount,
			Gold:           r.GoldBadgeCount,
			Silver:         r.SilverBadgeCount,
			Bronze:         r.BronzeBadgeCount,
			Total:          r.BadgeCount,
			OutsideScoring: r.OutsideScoringBadgeCount,
			InsideScoring:  r.InsideScoringBadgeCount,
			Playmaking:     r.PlaymakingBadgeCount,
			Defensive:      r.DefensiveBadgeCount,
			Rebounding:     r.ReboundingBadgeCount,
			GeneralOffense: r.GeneralOffenseBadgeCount,
			AllAround:      r.AllAroundBadgeCount,
		},
	}
}

// Encode renders players as a compact JSON array.
func Encode(players []roster.Player) ([]byte, error) {
	records := make([]Record, len(players))
	for i, p := range players {
		records[i] = FromPlayer(p)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a snapshot file.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return records, nil
}
