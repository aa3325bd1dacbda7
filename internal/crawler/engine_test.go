package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/cache"
	"github.com/JakeFAU/roster-crawler/internal/extract"
	memorypublisher "github.com/JakeFAU/roster-crawler/internal/publisher/memory"
	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/snapshot"
	memorystorage "github.com/JakeFAU/roster-crawler/internal/storage/memory"
)

const baseURL = "https://www.2kratings.com"

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string, profile PageProfile) (string, error) {
	args := m.Called(ctx, rawURL, profile)
	return args.String(0), args.Error(1)
}

func (m *MockFetcher) page(rawURL, document string) {
	m.On("Fetch", mock.Anything, rawURL, mock.Anything).Return(document, nil)
}

func (m *MockFetcher) callsFor(rawURL string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Arguments.String(1) == rawURL {
			n++
		}
	}
	return n
}

func teamURL(id string) string { return baseURL + "/teams/" + id }

func playerURL(slug string) string { return baseURL + "/" + slug }

func rosterPage(slugs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody>`)
	for _, s := range slugs {
		fmt.Fprintf(&b, `<tr class="entry-font"><td><a href="/%s">%s</a></td></tr>`, s, s)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func detailPage(name string, overall, attributes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1>%s</h1>`, name)
	b.WriteString(`<p class="header-subtitle">t0<span>s1</span>t2<span>s3</span><span>Position: <a>SF</a></span>t5<span>Height: <a>6'8"</a></span></p>`)
	fmt.Fprintf(&b, `<div class="attribute-box-player">%d</div>`, overall)
	b.WriteString(`<div class="content"><div class="card"><div class="card-body"><ul class="list-no-bullet">`)
	for i := 0; i < attributes; i++ {
		fmt.Fprintf(&b, `<li><span class="attribute-box">%d</span></li>`, 40+i)
	}
	b.WriteString(`</ul></div></div></div>`)
	for _, n := range []int{1, 2, 10, 8, 3, 24} {
		fmt.Fprintf(&b, `<span class="badge-count">%d</span>`, n)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

type harness struct {
	fetcher   *MockFetcher
	store     *memorystorage.Store
	publisher *memorypublisher.Publisher
	writer    *snapshot.Writer
}

func newHarness() *harness {
	store := memorystorage.NewStore()
	return &harness{
		fetcher:   &MockFetcher{},
		store:     store,
		publisher: memorypublisher.New(),
		writer:    snapshot.NewWriter(store, time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC), nil),
	}
}

func (h *harness) engine(freshness FreshnessCache, teams ...string) *Engine {
	cfg := Config{
		BaseURL:     baseURL,
		Roster:      DefaultRosterProfile(),
		Detail:      DefaultDetailProfile(),
		NotifyTopic: "roster-runs",
	}
	for _, id := range teams {
		cfg.Teams = append(cfg.Teams, roster.NewTeam(id))
	}
	retrier := NewRetrier(zap.NewNop())
	retrier.sleep = func(context.Context, time.Duration) error { return nil }
	return NewEngine(cfg, h.fetcher, extract.New(), freshness, h.writer, retrier, h.publisher, zap.NewNop())
}

func (h *harness) teamSnapshot(t *testing.T) []snapshot.Record {
	t.Helper()
	obj, ok := h.store.Get(h.writer.TeamFile())
	require.True(t, ok, "team snapshot not written")
	records, err := snapshot.Decode(obj.Data)
	require.NoError(t, err)
	return records
}

func (h *harness) leagueSnapshot(t *testing.T) []snapshot.Record {
	t.Helper()
	obj, ok := h.store.Get(h.writer.LeagueFile())
	require.True(t, ok, "league snapshot not written")
	records, err := snapshot.Decode(obj.Data)
	require.NoError(t, err)
	return records
}

func names(records []snapshot.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestEngineCrawlsEveryPlayer(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum", "jaylen-brown"))
	h.fetcher.page(teamURL("miami-heat"), rosterPage("jimmy-butler"))
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))
	h.fetcher.page(playerURL("jaylen-brown"), detailPage("Jaylen Brown", 89, 35))
	h.fetcher.page(playerURL("jimmy-butler"), detailPage("Jimmy Butler", 91, 35))

	summary, err := h.engine(nil, "boston-celtics", "miami-heat").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Progress.Fetched)
	assert.Equal(t, 2, summary.Progress.TeamsLoaded)
	assert.NotEmpty(t, summary.RunID)
	for _, u := range []string{playerURL("jayson-tatum"), playerURL("jaylen-brown"), playerURL("jimmy-butler")} {
		assert.Equal(t, 1, h.fetcher.callsFor(u), u)
	}

	team := h.teamSnapshot(t)
	assert.Equal(t, []string{"Jayson Tatum", "Jaylen Brown", "Jimmy Butler"}, names(team))
	assert.Equal(t, "Boston Celtics", team[0].Team)
	assert.Equal(t, "Miami Heat", team[2].Team)
	assert.Equal(t, []string{"Jayson Tatum", "Jimmy Butler", "Jaylen Brown"}, names(h.leagueSnapshot(t)))
	// one checkpoint per player, each rewriting both views
	assert.Equal(t, 6, h.store.Writes())
}

func TestEngineSkipsFreshPlayers(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum", "jaylen-brown"))
	h.fetcher.page(playerURL("jaylen-brown"), detailPage("Jaylen Brown", 89, 35))

	fresh := cache.New([]cache.Entry{
		{Player: roster.Player{Name: "Jayson Tatum", Team: "Boston Celtics", Overall: roster.Int(95)}, LastUpdated: time.Now().Add(-time.Hour)},
	}, 24*time.Hour)

	summary, err := h.engine(fresh, "boston-celtics").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, h.fetcher.callsFor(playerURL("jayson-tatum")))
	assert.Equal(t, 1, h.fetcher.callsFor(playerURL("jaylen-brown")))
	assert.Equal(t, 1, summary.Progress.Skipped)
	assert.Equal(t, 1, summary.Progress.Fetched)

	team := h.teamSnapshot(t)
	require.Len(t, team, 2)
	assert.Equal(t, "Jayson Tatum", team[0].Name)
	require.NotNil(t, team[0].OverallAttribute)
	assert.Equal(t, 95, *team[0].OverallAttribute)
	assert.Len(t, h.leagueSnapshot(t), 2)
}

func TestEngineRefetchesStaleOrTradedPlayers(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("miami-heat"), rosterPage("jimmy-butler", "bam-adebayo"))
	h.fetcher.page(playerURL("jimmy-butler"), detailPage("Jimmy Butler", 91, 35))
	h.fetcher.page(playerURL("bam-adebayo"), detailPage("Bam Adebayo", 88, 35))

	stale := cache.New([]cache.Entry{
		{Player: roster.Player{Name: "Jimmy Butler", Team: "Chicago Bulls", Overall: roster.Int(90)}, LastUpdated: time.Now()},
		{Player: roster.Player{Name: "Bam Adebayo", Team: "Miami Heat", Overall: roster.Int(87)}, LastUpdated: time.Now().Add(-48 * time.Hour)},
	}, 24*time.Hour)

	summary, err := h.engine(stale, "miami-heat").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Progress.Fetched)
	assert.Zero(t, summary.Progress.Skipped)
}

func TestEngineSecondRunSkipsEveryone(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum", "jaylen-brown"))
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))
	h.fetcher.page(playerURL("jaylen-brown"), detailPage("Jaylen Brown", 89, 35))

	_, err := h.engine(cache.Load(context.Background(), h.store, 24*time.Hour, nil), "boston-celtics").Run(context.Background())
	require.NoError(t, err)
	first := h.teamSnapshot(t)

	second := &harness{
		fetcher:   h.fetcher,
		store:     h.store,
		publisher: h.publisher,
		writer:    snapshot.NewWriter(h.store, time.Date(2024, 10, 1, 13, 0, 0, 0, time.UTC), nil),
	}
	summary, err := second.engine(cache.Load(context.Background(), h.store, 24*time.Hour, nil), "boston-celtics").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Progress.Skipped)
	assert.Zero(t, summary.Progress.Fetched)
	assert.Equal(t, 1, h.fetcher.callsFor(playerURL("jayson-tatum")))
	assert.Equal(t, 1, h.fetcher.callsFor(playerURL("jaylen-brown")))
	assert.Equal(t, first, second.teamSnapshot(t))
}

func TestEngineContainsEmptyRoster(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), `<html><body><table><tbody></tbody></table></body></html>`)
	h.fetcher.page(teamURL("miami-heat"), rosterPage("jimmy-butler"))
	h.fetcher.page(playerURL("jimmy-butler"), detailPage("Jimmy Butler", 91, 35))

	e := h.engine(nil, "boston-celtics", "miami-heat")
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, h.fetcher.callsFor(teamURL("boston-celtics")))
	assert.Equal(t, 1, summary.Progress.TeamsFailed)
	assert.Equal(t, 1, summary.Progress.Fetched)

	var exhausted *FetchExhausted
	require.ErrorAs(t, e.State().RosterErr("boston-celtics"), &exhausted)
	var structural *extract.StructuralError
	assert.ErrorAs(t, exhausted, &structural)
	assert.Equal(t, []string{"Jimmy Butler"}, names(h.teamSnapshot(t)))
}

func TestEngineMissingAttributeFailsPlayerOnly(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jaylen-brown", "jayson-tatum"))
	h.fetcher.page(playerURL("jaylen-brown"), detailPage("Jaylen Brown", 89, 32))
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))

	e := h.engine(nil, "boston-celtics")
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, h.fetcher.callsFor(playerURL("jaylen-brown")))
	assert.Equal(t, 1, summary.Progress.Failed)
	assert.Equal(t, 1, summary.Progress.Fetched)
	assert.Equal(t, []string{"Jayson Tatum"}, names(h.teamSnapshot(t)))

	outcomes := e.State().Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, StateFailed, outcomes[0].State)
	assert.Contains(t, outcomes[0].Error, "defensiveConsistency")
}

func TestEngineRetriesNavigationFailures(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum"))
	h.fetcher.On("Fetch", mock.Anything, playerURL("jayson-tatum"), mock.Anything).
		Return("", &NavigationError{URL: playerURL("jayson-tatum"), Status: 403}).Once()
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))

	summary, err := h.engine(nil, "boston-celtics").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, h.fetcher.callsFor(playerURL("jayson-tatum")))
	assert.Equal(t, 1, summary.Progress.Fetched)
}

func TestEnginePublishesSummary(t *testing.T) {
	h := newHarness()
	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum"))
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))

	_, err := h.engine(nil, "boston-celtics").Run(context.Background())
	require.NoError(t, err)

	msgs := h.publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "roster-runs", msgs[0].Topic)
	var summary Summary
	require.NoError(t, json.Unmarshal(msgs[0].Data, &summary))
	assert.Equal(t, 1, summary.Progress.Fetched)
	assert.Equal(t, h.writer.TeamFile(), summary.TeamFile)
}

func TestEngineStopsOnCancel(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.fetcher.page(teamURL("boston-celtics"), rosterPage("jayson-tatum", "jaylen-brown", "derrick-white"))
	h.fetcher.page(playerURL("jayson-tatum"), detailPage("Jayson Tatum", 95, 35))
	h.fetcher.On("Fetch", mock.Anything, playerURL("jaylen-brown"), mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", context.Canceled)

	summary, err := h.engine(nil, "boston-celtics").Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.fetcher.callsFor(playerURL("derrick-white")))
	assert.Equal(t, 1, summary.Progress.Fetched)
	assert.Equal(t, []string{"Jayson Tatum"}, names(h.teamSnapshot(t)))
	assert.Len(t, h.publisher.Messages(), 1)
}

func TestPlayerNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://www.2kratings.com/lebron-james":          "lebron james",
		"https://www.2kratings.com/lebron-james/":         "lebron james",
		"/nikola-jokic":                                   "nikola jokic",
		"https://www.2kratings.com/luka-don%C4%8Di%C4%87": "luka dončić",
		"":                                                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, PlayerNameFromURL(in), in)
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL(baseURL, " /jayson-tatum ")
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/jayson-tatum", got)

	got, err = ResolveURL(baseURL, "https://other.example/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/x", got)
}
