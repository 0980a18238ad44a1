package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceKind selects which calendar adapter serves an owner.
type SourceKind string

const (
	SourceGoogle SourceKind = "google"
	SourceICS    SourceKind = "ics"
)

// OwnerConfig describes one of the two calendar owners.
type OwnerConfig struct {
	// Name is the display name shown in legends and logs.
	Name string `yaml:"name" json:"name"`

	// Source selects the adapter: "google" (default) or "ics".
	Source SourceKind `yaml:"source" json:"source"`

	// CalendarID is the Google Calendar identifier. Required when Source
	// is "google".
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`

	// ICSURL is the feed endpoint. Required when Source is "ics".
	ICSURL string `yaml:"ics_url" json:"ics_url"`
}

// Configured reports whether the owner has a usable source.
func (o OwnerConfig) Configured() bool {
	switch o.Source {
	case SourceICS:
		return o.ICSURL != ""
	default:
		return o.CalendarID != ""
	}
}

// GoogleConfig holds the OAuth material locations for the Google Calendar
// adapter. Token creation itself is provisioned externally.
type GoogleConfig struct {
	CredentialsPath string `yaml:"credentials_path" json:"credentials_path"`
	TokenPath       string `yaml:"token_path" json:"token_path"`
}

// WeatherConfig configures the OpenWeatherMap provider. The API key comes
// from the OPENWEATHER_API_KEY environment variable, never from this file.
type WeatherConfig struct {
	Location string  `yaml:"location" json:"location"`
	Lat      float64 `yaml:"lat" json:"lat"`
	Lon      float64 `yaml:"lon" json:"lon"`
}

// StocksConfig configures the Polygon quote fetcher. The API key comes from
// the POLYGON_API_KEY environment variable.
type StocksConfig struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// DisplayConfig describes the panel geometry and hardware access.
type DisplayConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// UseHardware enables the SPI/GPIO panel driver. When false, or when
	// hardware initialization fails, the simulator sink is used instead.
	UseHardware bool `yaml:"use_hardware" json:"use_hardware"`

	// PreviewPath is where the simulator (and -dump) writes the rendered PNG.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`
}

// BatteryConfig enables the PiSugar3 battery reader.
type BatteryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Bus     string `yaml:"bus" json:"bus"`
	Addr    uint16 `yaml:"addr" json:"addr"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the preview/status API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "America/Los_Angeles").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Mode selects the layout template. Unknown values fall back to the
	// default layout at dispatch time, not here.
	Mode string `yaml:"mode" json:"mode"`

	// RefreshCron is a cron-style schedule for the periodic update cycle.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the fetch window handed to calendar sources.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// FetchTimeoutSec bounds each individual network fetch.
	FetchTimeoutSec int `yaml:"fetch_timeout_sec" json:"fetch_timeout_sec"`

	// DBPath is the SQLite event cache location.
	DBPath string `yaml:"db_path" json:"db_path"`

	// PrivacyMode obscures event titles before rendering: "off" or "xkcd".
	PrivacyMode string `yaml:"privacy_mode" json:"privacy_mode"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	OwnerA OwnerConfig `yaml:"owner_a" json:"owner_a"`
	OwnerB OwnerConfig `yaml:"owner_b" json:"owner_b"`

	Google  GoogleConfig  `yaml:"google" json:"google"`
	Weather WeatherConfig `yaml:"weather" json:"weather"`
	Stocks  StocksConfig  `yaml:"stocks" json:"stocks"`
	Display DisplayConfig `yaml:"display" json:"display"`
	Battery BatteryConfig `yaml:"battery" json:"battery"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "America/Los_Angeles",
		Mode:            "grid",
		RefreshCron:     "*/15 * * * *",
		HorizonDays:     42,
		FetchTimeoutSec: 20,
		DBPath:          "/var/lib/epddash/events_cache.db",
		PrivacyMode:     "off",
		LogLevel:        "INFO",
		OwnerA:          OwnerConfig{Name: "Ashi", Source: SourceGoogle},
		OwnerB:          OwnerConfig{Name: "Sindi", Source: SourceGoogle},
		Google: GoogleConfig{
			CredentialsPath: "/etc/epddash/credentials.json",
			TokenPath:       "/var/lib/epddash/token.json",
		},
		Weather: WeatherConfig{Location: "San Francisco"},
		Stocks:  StocksConfig{},
		Display: DisplayConfig{
			Width:       800,
			Height:      480,
			UseHardware: true,
			PreviewPath: "/var/lib/epddash/preview.png",
		},
		Battery: BatteryConfig{Addr: 0x75, Bus: ""},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.FetchTimeoutSec <= 0 {
		c.FetchTimeoutSec = def.FetchTimeoutSec
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.PrivacyMode == "" {
		c.PrivacyMode = def.PrivacyMode
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.OwnerA.Name == "" {
		c.OwnerA.Name = def.OwnerA.Name
	}
	if c.OwnerB.Name == "" {
		c.OwnerB.Name = def.OwnerB.Name
	}
	if c.OwnerA.Source == "" {
		c.OwnerA.Source = SourceGoogle
	}
	if c.OwnerB.Source == "" {
		c.OwnerB.Source = SourceGoogle
	}
	if c.Google.CredentialsPath == "" {
		c.Google.CredentialsPath = def.Google.CredentialsPath
	}
	if c.Google.TokenPath == "" {
		c.Google.TokenPath = def.Google.TokenPath
	}
	if c.Display.Width <= 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.Height <= 0 {
		c.Display.Height = def.Display.Height
	}
	if c.Display.PreviewPath == "" {
		c.Display.PreviewPath = def.Display.PreviewPath
	}
	if c.Battery.Addr == 0 {
		c.Battery.Addr = def.Battery.Addr
	}
	if c.Stocks.Tickers == nil {
		c.Stocks.Tickers = []string{}
	}
}

// Validate checks the configuration-absence conditions that must fail fast,
// before any fetch attempt. Every other failure mode degrades at runtime.
func (c *Config) Validate() error {
	if !c.OwnerA.Configured() {
		return fmt.Errorf("owner_a (%s): no calendar configured", c.OwnerA.Name)
	}
	if !c.OwnerB.Configured() {
		return fmt.Errorf("owner_b (%s): no calendar configured", c.OwnerB.Name)
	}
	if c.OwnerA.Source != SourceGoogle && c.OwnerA.Source != SourceICS {
		return fmt.Errorf("owner_a: unknown source %q", c.OwnerA.Source)
	}
	if c.OwnerB.Source != SourceGoogle && c.OwnerB.Source != SourceICS {
		return fmt.Errorf("owner_b: unknown source %q", c.OwnerB.Source)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written (0600) and
//     returned so that first runs are self-provisioning.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epddash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
