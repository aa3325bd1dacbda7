// Package cache decides which players can be skipped because a recent
// snapshot already holds their record.
package cache

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/snapshot"
	"github.com/JakeFAU/roster-crawler/internal/storage"
)

// DefaultMaxAge is how long a cached record stays fresh.
const DefaultMaxAge = 24 * time.Hour

// Entry is a cached player and when its snapshot was written.
type Entry struct {
	Player      roster.Player
	LastUpdated time.Time
}

// Cache is an immutable name-keyed view of the previous team snapshot.
type Cache struct {
	entries map[string]Entry
	maxAge  time.Duration
	now     func() time.Time
	source  string
}

// New builds a cache from entries. Entries without a name, team or overall
// rating are dropped; a later entry for the same name replaces an earlier one.
func New(entries []Entry, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Cache{
		entries: make(map[string]Entry, len(entries)),
		maxAge:  maxAge,
		now:     time.Now,
	}
	for _, e := range entries {
		if !e.Player.HasIdentity() || e.Player.Overall == nil {
			continue
		}
		c.entries[NormalizeName(e.Player.Name)] = e
	}
	return c
}

// Load reads the most recent team snapshot from store. A missing, unreadable
// or corrupt snapshot yields an empty cache; the crawl then fetches everyone.
func Load(ctx context.Context, store storage.SnapshotStore, maxAge time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	obj, ok, err := store.Latest(ctx, snapshot.TeamPrefix, snapshot.Suffix)
	if err != nil {
		logger.Warn("reading latest snapshot failed; starting with empty cache", zap.Error(err))
		return New(nil, maxAge)
	}
	if !ok {
		logger.Info("no previous snapshot; starting with empty cache")
		return New(nil, maxAge)
	}
	records, err := snapshot.Decode(obj.Data)
	if err != nil {
		logger.Warn("previous snapshot is corrupt; starting with empty cache",
			zap.String("file", obj.Name),
			zap.Error(err),
		)
		return New(nil, maxAge)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Player: r.Player(), LastUpdated: obj.ModTime})
	}
	c := New(entries, maxAge)
	c.source = obj.Name
	logger.Info("loaded player cache",
		zap.String("file", obj.Name),
		zap.Time("last_updated", obj.ModTime),
		zap.Int("records", len(records)),
		zap.Int("entries", c.Len()),
	)
	return c
}

// IsStale reports whether the player must be fetched: there is no entry,
// the entry is older than the max age, or the player changed teams.
func (c *Cache) IsStale(name, team string) bool {
	e, ok := c.entries[NormalizeName(name)]
	if !ok {
		return true
	}
	if c.now().Sub(e.LastUpdated) > c.maxAge {
		return true
	}
	return e.Player.Team != team
}

// Lookup returns the cached record for name.
func (c *Cache) Lookup(name string) (roster.Player, bool) {
	e, ok := c.entries[NormalizeName(name)]
	return e.Player, ok
}

// Len is the number of usable entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Source names the snapshot the cache was loaded from, if any.
func (c *Cache) Source() string {
	return c.source
}

// Entries returns the cached entries sorted by team then name.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Player.Team != out[j].Player.Team {
			return out[i].Player.Team < out[j].Player.Team
		}
		return out[i].Player.Name < out[j].Player.Name
	})
	return out
}

// Fresh reports whether e is within the max age at the current time.
func (c *Cache) Fresh(e Entry) bool {
	return c.now().Sub(e.LastUpdated) <= c.maxAge
}
