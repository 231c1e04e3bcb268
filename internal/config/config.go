package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultLrclibURL    = "https://lrclib.net/api"

	DefaultGridSize     = 30
	DefaultPaletteSize  = 5
	PollInterval        = 500 * time.Millisecond
	TickInterval        = 500 * time.Millisecond
	HTTPTimeoutSeconds  = 10
	ArtworkTimeout      = 5 * time.Second
	ArtworkCacheTTLDays = 30
	LyricsCacheTTLDays  = 7
)

type Config struct {
	MprisService string
	LrclibURL    string
	SyncOffset   float64
	GridSize     int
	PaletteSize  int
	NoCache      bool

	TidalClientID     string
	TidalClientSecret string
}

// Load reads configuration from the environment. Flags applied by the
// CLI layer override these values afterwards.
func Load() *Config {
	syncOffset, err := strconv.ParseFloat(getEnvOrDefault("SYNC_OFFSET", "0"), 64)
	if err != nil {
		syncOffset = 0
	}

	return &Config{
		MprisService:      getEnvOrDefault("MPRIS_SERVICE", DefaultMprisService),
		LrclibURL:         getEnvOrDefault("LRCLIB_URL", DefaultLrclibURL),
		SyncOffset:        syncOffset,
		GridSize:          getEnvInt("PIXWATCH_GRID", DefaultGridSize),
		PaletteSize:       getEnvInt("PIXWATCH_COLORS", DefaultPaletteSize),
		NoCache:           getEnvBool("PIXWATCH_NO_CACHE"),
		TidalClientID:     os.Getenv("TIDAL_CLIENT_ID"),
		TidalClientSecret: os.Getenv("TIDAL_CLIENT_SECRET"),
	}
}

// HasTidalCredentials reports whether enrichment can be enabled at all.
func (c *Config) HasTidalCredentials() bool {
	return c.TidalClientID != "" && c.TidalClientSecret != ""
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getEnvBool(key string) bool {
	value := os.Getenv(key)
	return value == "1" || value == "true" || value == "yes"
}
