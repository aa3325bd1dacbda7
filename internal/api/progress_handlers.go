package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/crawler"
)

const (
	defaultPlayerLimit = 100
	maxPlayerLimit     = 1000
)

// ProgressHandler exposes read-only run progress endpoints.
type ProgressHandler struct {
	source StatusSource
	logger *zap.Logger
}

// NewProgressHandler wires the status source and logger.
func NewProgressHandler(source StatusSource, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{source: source, logger: logger}
}

// Summary handles GET /progress and returns the run counters.
func (h *ProgressHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, "crawl not started")
		return
	}
	writeJSON(w, http.StatusOK, h.source.Progress())
}

// Players handles GET /progress/players?state=&team=&limit=&offset=. It
// returns {"players": [...], "total": n} where total counts every match
// before paging; 400 for invalid filters.
func (h *ProgressHandler) Players(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, "crawl not started")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultPlayerLimit, maxPlayerLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := parseState(r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	team := strings.TrimSpace(r.URL.Query().Get("team"))

	matched := make([]crawler.PlayerOutcome, 0)
	for _, o := range h.source.Outcomes() {
		if state != "" && o.State != state {
			continue
		}
		if team != "" && o.TeamID != team {
			continue
		}
		matched = append(matched, o)
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players": matched[offset:end],
		"total":   total,
	})
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func parseState(input string) (crawler.PlayerState, error) {
	switch s := crawler.PlayerState(strings.ToLower(strings.TrimSpace(input))); s {
	case "":
		return "", nil
	case crawler.StatePending, crawler.StateSkipped, crawler.StateFetching, crawler.StateFetched, crawler.StateFailed:
		return s, nil
	default:
		return "", errors.New("invalid state")
	}
}
