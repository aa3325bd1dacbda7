// Package config loads and validates roster crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Fetch modes.
const (
	ModeBrowser = "browser"
	ModeStatic  = "static"
)

// Storage backends.
const (
	BackendLocal    = "local"
	BackendGCS      = "gcs"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SiteConfig names the roster site and the teams to crawl, in crawl order.
type SiteConfig struct {
	BaseURL string   `mapstructure:"base_url"`
	Teams   []string `mapstructure:"teams"`
}

// FetchConfig selects how pages are fetched.
type FetchConfig struct {
	Mode string `mapstructure:"mode"`
	// RosterConcurrency caps simultaneous roster sessions; zero is unbounded.
	RosterConcurrency int `mapstructure:"roster_concurrency"`
}

// ProfilesConfig holds the per-page-type fetch settings.
type ProfilesConfig struct {
	Roster ProfileConfig `mapstructure:"roster"`
	Detail ProfileConfig `mapstructure:"detail"`
}

// ProfileConfig configures navigation and retries for one page type.
type ProfileConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ReadySelector     string        `mapstructure:"ready_selector"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	Jitter            time.Duration `mapstructure:"jitter"`
}

// BrowserConfig controls the identity and pacing of browser sessions.
type BrowserConfig struct {
	ExecPath       string        `mapstructure:"exec_path"`
	Headless       bool          `mapstructure:"headless"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	MinDelay       time.Duration `mapstructure:"min_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
}

// StorageConfig selects where snapshots are written.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	Local    LocalConfig    `mapstructure:"local"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	Dir string `mapstructure:"dir"`
}

// GCSConfig configures the Cloud Storage backend.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// CacheConfig controls the freshness cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// PubSubConfig holds the completion notification target.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file, and ROSTER_*
// environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://www.2kratings.com")
	v.SetDefault("site.teams", roster.DefaultTeams)
	v.SetDefault("fetch.mode", ModeBrowser)
	v.SetDefault("fetch.roster_concurrency", 0)

	for key, p := range map[string]crawler.PageProfile{
		"profiles.roster": crawler.DefaultRosterProfile(),
		"profiles.detail": crawler.DefaultDetailProfile(),
	} {
		v.SetDefault(key+".navigation_timeout", p.NavigationTimeout)
		v.SetDefault(key+".ready_selector", p.ReadySelector)
		v.SetDefault(key+".max_attempts", p.Retry.MaxAttempts)
		v.SetDefault(key+".base_delay", p.Retry.BaseDelay)
		v.SetDefault(key+".max_delay", p.Retry.MaxDelay)
		v.SetDefault(key+".jitter", p.Retry.Jitter)
	}

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.accept_language", "en-US,en;q=0.9")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.min_delay", time.Second)
	v.SetDefault("browser.max_delay", 4*time.Second)

	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local.dir", "data")
	v.SetDefault("storage.postgres.table", "roster_snapshots")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_age", 24*time.Hour)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL")
	}
	if len(c.Site.Teams) == 0 {
		return fmt.Errorf("site.teams must list at least one team")
	}
	switch c.Fetch.Mode {
	case ModeBrowser, ModeStatic:
	default:
		return fmt.Errorf("fetch.mode must be %q or %q", ModeBrowser, ModeStatic)
	}
	if c.Fetch.RosterConcurrency < 0 {
		return fmt.Errorf("fetch.roster_concurrency must be >= 0")
	}
	if err := c.Profiles.Roster.validate("profiles.roster"); err != nil {
		return err
	}
	if err := c.Profiles.Detail.validate("profiles.detail"); err != nil {
		return err
	}
	if c.Browser.MinDelay < 0 || c.Browser.MaxDelay < c.Browser.MinDelay {
		return fmt.Errorf("browser.max_delay must be >= browser.min_delay >= 0")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.Local.Dir == "" {
			return fmt.Errorf("storage.local.dir is required for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required for the gcs backend")
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
		}
	case BackendMemory, BackendNone:
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.Cache.Enabled && c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be > 0 when the cache is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.PubSub.TopicID != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_id is set")
	}
	return nil
}

func (p ProfileConfig) validate(key string) error {
	if p.NavigationTimeout <= 0 {
		return fmt.Errorf("%s.navigation_timeout must be > 0", key)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%s.max_attempts must be > 0", key)
	}
	if p.BaseDelay < 0 || p.Jitter < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("%s delays must be >= 0", key)
	}
	return nil
}

// Teams returns the configured teams in crawl order.
func (c Config) Teams() []roster.Team {
	teams := make([]roster.Team, 0, len(c.Site.Teams))
	for _, id := range c.Site.Teams {
		if t := roster.NewTeam(id); t.ID != "" {
			teams = append(teams, t)
		}
	}
	return teams
}

// Engine converts the configuration into crawl engine settings.
func (c Config) Engine() crawler.Config {
	return crawler.Config{
		BaseURL:           c.Site.BaseURL,
		Teams:             c.Teams(),
		Roster:            c.Profiles.Roster.profile(crawler.ProfileRoster),
		Detail:            c.Profiles.Detail.profile(crawler.ProfileDetail),
		RosterConcurrency: c.Fetch.RosterConcurrency,
		NotifyTopic:       c.PubSub.TopicID,
	}
}

func (p ProfileConfig) profile(name string) crawler.PageProfile {
	return crawler.PageProfile{
		Name:              name,
		NavigationTimeout: p.NavigationTimeout,
		ReadySelector:     p.ReadySelector,
		Retry: crawler.RetryPolicy{
			MaxAttempts: p.MaxAttempts,
			BaseDelay:   p.BaseDelay,
			MaxDelay:    p.MaxDelay,
			Jitter:      p.Jitter,
		},
	}
}
