package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/storage"
	"github.com/JakeFAU/roster-crawler/internal/storage/memory"
)

func player(name, team string, overall *int) roster.Player {
	return roster.Player{Name: name, Team: team, Overall: overall}
}

func names(players []roster.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func TestByTeam(t *testing.T) {
	t.Parallel()

	in := []roster.Player{
		player("Tatum", "Boston Celtics", roster.Int(95)),
		player("Reaves", "Los Angeles Lakers", roster.Int(82)),
		player("James", "Los Angeles Lakers", roster.Int(96)),
		player("Brown", "Boston Celtics", roster.Int(88)),
		player("Davis", "Los Angeles Lakers", roster.Int(96)),
	}
	got := ByTeam(in)

	assert.Equal(t, []string{"Tatum", "Brown", "James", "Davis", "Reaves"}, names(got))
	assert.Equal(t, "Tatum", in[0].Name, "input must not be reordered")

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		require.LessOrEqual(t, prev.Team, cur.Team)
		if prev.Team == cur.Team {
			require.GreaterOrEqual(t, *prev.Overall, *cur.Overall)
		}
	}
}

func TestByLeague(t *testing.T) {
	t.Parallel()

	in := []roster.Player{
		player("NoRating", "Boston Celtics", nil),
		player("Reaves", "Los Angeles Lakers", roster.Int(82)),
		player("James", "Los Angeles Lakers", roster.Int(96)),
		player("Tatum", "Boston Celtics", roster.Int(95)),
		player("Davis", "Los Angeles Lakers", roster.Int(96)),
	}
	got := ByLeague(in)
	assert.Equal(t, []string{"James", "Davis", "Tatum", "Reaves", "NoRating"}, names(got))
}

func TestEncodeIsCompactAndOrdered(t *testing.T) {
	t.Parallel()

	p := roster.Player{
		Name:     "Luka Dončić",
		Team:     "Dallas Mavericks",
		Position: "PG",
		Height:   `6'7"`,
		Overall:  roster.Int(97),
		Badges:   roster.BadgeCounts{Playmaking: roster.Int(9)},
	}
	data, err := Encode([]roster.Player{p})
	require.NoError(t, err)

	s := string(data)
	assert.NotContains(t, s, "\n")
	assert.True(t, strings.HasPrefix(s, `[{"name":"Luka Dončić","team":"Dallas Mavericks","position":"PG","height":"6'7\"","overallAttribute":97,"closeShot":null`))
	assert.Less(t, strings.Index(s, `"defensiveRebound"`), strings.Index(s, `"speed"`))
	assert.Contains(t, s, `"playmakingBadgeCount":9`)
	assert.Contains(t, s, `"insideScoringBadgeCount":null`)

	records, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, p, records[0].Player())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestWriterFileNames(t *testing.T) {
	t.Parallel()

	runTime := time.Date(2025, 10, 4, 18, 30, 5, 123_000_000, time.FixedZone("EST", -5*3600))
	w := NewWriter(memory.NewStore(), runTime, nil)
	assert.Equal(t, "2kroster_team_2025-10-04T23-30-05-123Z.json", w.TeamFile())
	assert.Equal(t, "2kroster_league_2025-10-04T23-30-05-123Z.json", w.LeagueFile())
}

func TestWriterPersistsBothViews(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	w := NewWriter(store, time.Now(), nil)
	in := []roster.Player{
		player("Reaves", "Los Angeles Lakers", roster.Int(82)),
		player("Tatum", "Boston Celtics", roster.Int(95)),
	}
	w.Persist(context.Background(), in)
	w.Persist(context.Background(), append(in, player("James", "Los Angeles Lakers", roster.Int(96))))

	team, ok := store.Get(w.TeamFile())
	require.True(t, ok)
	records, err := Decode(team.Data)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Tatum", "James", "Reaves"}, []string{records[0].Name, records[1].Name, records[2].Name})

	league, ok := store.Get(w.LeagueFile())
	require.True(t, ok)
	records, err = Decode(league.Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"James", "Tatum", "Reaves"}, []string{records[0].Name, records[1].Name, records[2].Name})
	assert.Equal(t, 4, store.Writes())
}

type failingStore struct{ calls int }

func (f *failingStore) Write(context.Context, string, []byte) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingStore) Latest(context.Context, string, string) (storage.Object, bool, error) {
	return storage.Object{}, false, nil
}

func TestWriterSwallowsWriteErrors(t *testing.T) {
	t.Parallel()

	store := &failingStore{}
	w := NewWriter(store, time.Now(), nil)
	assert.NotPanics(t, func() {
		w.Persist(context.Background(), []roster.Player{player("Tatum", "Boston Celtics", roster.Int(95))})
	})
	assert.Equal(t, 2, store.calls)
}
