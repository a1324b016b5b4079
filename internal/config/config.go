package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration. Every tunable the
// detection engine consumes is enumerated here once and threaded explicitly
// into the component that uses it.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	ADSB      ADSBConfig      `toml:"adsb"`
	Geofence  GeofenceConfig  `toml:"geofence"`
	Storage   StorageConfig   `toml:"storage"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Detection DetectionConfig `toml:"detection"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// Tile is one circular query area passed to the telemetry source.
type Tile struct {
	Lat     float64 `toml:"lat"`
	Lon     float64 `toml:"lon"`
	RangeNM int     `toml:"range_nm"`
}

// ADSBConfig holds the telemetry source settings
type ADSBConfig struct {
	TileURLTemplate   string  `toml:"tile_url_template"`
	MilitaryURL       string  `toml:"military_url"`
	Tiles             []Tile  `toml:"tiles"`
	PollIntervalSecs  int     `toml:"poll_interval_secs"`
	HTTPTimeoutSecs   int     `toml:"http_timeout_secs"`
	HTTPRetries       int     `toml:"http_retries"`
	HTTPBackoffSecs   float64 `toml:"http_backoff_secs"`
	RequestsPerSec    float64 `toml:"requests_per_sec"`
	FetchMilitaryFeed bool    `toml:"fetch_military_feed"`
}

// GeofenceConfig holds the optional area-of-interest filter
type GeofenceConfig struct {
	PolygonsFile string `toml:"polygons_file"`
}

// StorageConfig holds the persistence settings
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
	CSVPath    string `toml:"csv_path"`
}

// TelegramConfig holds the outbound notification settings
type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// DetectionConfig groups every classifier threshold.
type DetectionConfig struct {
	Anomaly   AnomalyConfig   `toml:"anomaly"`
	Proximity ProximityConfig `toml:"proximity"`
	Loop      LoopConfig      `toml:"loop"`
	Lawnmower LawnmowerConfig `toml:"lawnmower"`
	Mesh      MeshConfig      `toml:"mesh"`
	Cooldown  CooldownConfig  `toml:"cooldown"`
}

// AnomalyConfig holds the operational anomaly thresholds
type AnomalyConfig struct {
	MinAltFt  int     `toml:"min_alt_ft"`
	MaxAltFt  int     `toml:"max_alt_ft"`
	MinGSKt   float64 `toml:"min_gs_kt"`
	MaxGSKt   float64 `toml:"max_gs_kt"`
	MaxVSFpm  float64 `toml:"max_vs_fpm"`
	MaxDGSKts float64 `toml:"max_dgs_kts"`
}

// ProximityConfig holds the pairwise proximity thresholds
type ProximityConfig struct {
	RadiusKm  float64 `toml:"radius_km"`
	AngleDeg  float64 `toml:"angle_deg"`
	AltDiffFt float64 `toml:"alt_diff_ft"`
	GSDiffKt  float64 `toml:"gs_diff_kt"`
}

// LoopConfig holds the LOOP/RACETRACK detector tunables
type LoopConfig struct {
	MinPoints int     `toml:"min_points"`
	CloseKm   float64 `toml:"close_km"`
	MinSpanKm float64 `toml:"min_span_km"`
	MinLaps   int     `toml:"min_laps"`
}

// LawnmowerConfig holds the boustrophedon sweep detector tunables
type LawnmowerConfig struct {
	MinPoints      int     `toml:"min_points"`
	HeadingTolDeg  float64 `toml:"heading_tol_deg"`
	RequiredPasses int     `toml:"required_passes"`
	MinSpanKm      float64 `toml:"min_span_km"`
}

// MeshConfig holds the cross-hatch sweep detector tunables
type MeshConfig struct {
	MinPoints      int     `toml:"min_points"`
	PerpTolDeg     float64 `toml:"perp_tol_deg"`
	MinCrossings   int     `toml:"min_crossings"`
	MinFamilyRatio float64 `toml:"min_family_ratio"`
}

// CooldownConfig holds the per-class alert suppression windows
type CooldownConfig struct {
	AnomalySecs   int `toml:"anomaly_secs"`
	PatternSecs   int `toml:"pattern_secs"`
	ProximitySecs int `toml:"proximity_secs"`
	MilitarySecs  int `toml:"military_secs"`
}

// DefaultConfig returns the configuration with all defaults applied.
// Detection thresholds match the original field-tuned values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		ADSB: ADSBConfig{
			TileURLTemplate:   "https://opendata.adsb.fi/api/v2/lat/%f/lon/%f/dist/%d",
			MilitaryURL:       "https://opendata.adsb.fi/api/v2/mil",
			PollIntervalSecs:  60,
			HTTPTimeoutSecs:   15,
			HTTPRetries:       2,
			HTTPBackoffSecs:   2.0,
			RequestsPerSec:    1.0,
			FetchMilitaryFeed: true,
		},
		Storage: StorageConfig{
			SQLitePath: "events.db",
			CSVPath:    "events.csv",
		},
		Detection: DetectionConfig{
			Anomaly: AnomalyConfig{
				MinAltFt:  500,
				MaxAltFt:  60000,
				MinGSKt:   35,
				MaxGSKt:   650,
				MaxVSFpm:  8000,
				MaxDGSKts: 250,
			},
			Proximity: ProximityConfig{
				RadiusKm:  3.0,
				AngleDeg:  20.0,
				AltDiffFt: 500.0,
				GSDiffKt:  40.0,
			},
			Loop: LoopConfig{
				MinPoints: 30,
				CloseKm:   3.0,
				MinSpanKm: 10.0,
				MinLaps:   2,
			},
			Lawnmower: LawnmowerConfig{
				MinPoints:      14,
				HeadingTolDeg:  15.0,
				RequiredPasses: 4,
				MinSpanKm:      15.0,
			},
			Mesh: MeshConfig{
				MinPoints:      25,
				PerpTolDeg:     15.0,
				MinCrossings:   3,
				MinFamilyRatio: 0.25,
			},
			Cooldown: CooldownConfig{
				AnomalySecs:   300,
				PatternSecs:   900,
				ProximitySecs: 600,
				MilitarySecs:  1800,
			},
		},
	}
}

// Load reads the TOML config file at path, overlaying it on the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not accessible: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.ADSB.PollIntervalSecs < 1 {
		return nil, fmt.Errorf("poll_interval_secs must be at least 1, got %d", cfg.ADSB.PollIntervalSecs)
	}

	return cfg, nil
}

// PollInterval returns the polling cadence as a duration
func (c *ADSBConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// HTTPTimeout returns the per-request timeout as a duration
func (c *ADSBConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

// Window helpers convert the configured cooldown seconds to durations.

func (c *CooldownConfig) AnomalyWindow() time.Duration {
	return time.Duration(c.AnomalySecs) * time.Second
}

func (c *CooldownConfig) PatternWindow() time.Duration {
	return time.Duration(c.PatternSecs) * time.Second
}

func (c *CooldownConfig) ProximityWindow() time.Duration {
	return time.Duration(c.ProximitySecs) * time.Second
}

func (c *CooldownConfig) MilitaryWindow() time.Duration {
	return time.Duration(c.MilitarySecs) * time.Second
}
