package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Jina        JinaConfig        `yaml:"jina" mapstructure:"jina"`
	Places      PlacesConfig      `yaml:"places" mapstructure:"places"`
	Nominatim   NominatimConfig   `yaml:"nominatim" mapstructure:"nominatim"`
	Overpass    OverpassConfig    `yaml:"overpass" mapstructure:"overpass"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Food        FoodConfig        `yaml:"food" mapstructure:"food"`
	Collectible CollectibleConfig `yaml:"collectible" mapstructure:"collectible"`
	UsageLog    UsageLogConfig    `yaml:"usage_log" mapstructure:"usage_log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds model API settings. The vision model classifies
// and identifies; the text model synthesizes valuations and descriptions.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	VisionModel string `yaml:"vision_model" mapstructure:"vision_model"`
	TextModel   string `yaml:"text_model" mapstructure:"text_model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// JinaConfig holds Jina search API settings.
type JinaConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	DefaultRadius int    `yaml:"default_radius_m" mapstructure:"default_radius_m"`
}

// NominatimConfig holds reverse geocoding settings.
type NominatimConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateRPS   float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// OverpassConfig holds trail lookup settings.
type OverpassConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TrailRadius int    `yaml:"trail_radius_m" mapstructure:"trail_radius_m"`
}

// CacheConfig configures the process-wide geo cache.
type CacheConfig struct {
	ReverseTTLHours int `yaml:"reverse_ttl_hours" mapstructure:"reverse_ttl_hours"`
	PlacesTTLHours  int `yaml:"places_ttl_hours" mapstructure:"places_ttl_hours"`
	TrailsTTLHours  int `yaml:"trails_ttl_hours" mapstructure:"trails_ttl_hours"`
	MaxEntries      int `yaml:"max_entries" mapstructure:"max_entries"`
}

// FoodConfig configures the food location matcher.
type FoodConfig struct {
	StartRadius      int     `yaml:"start_radius_m" mapstructure:"start_radius_m"`
	MaxRadius        int     `yaml:"max_radius_m" mapstructure:"max_radius_m"`
	AutoSelectMeters float64 `yaml:"auto_select_meters" mapstructure:"auto_select_meters"`
	AutoSelectRating float64 `yaml:"auto_select_rating" mapstructure:"auto_select_rating"`
	MinKeywordScore  float64 `yaml:"min_keyword_score" mapstructure:"min_keyword_score"`
	MaxCandidates    int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// CollectibleConfig configures the collectible valuation pipeline.
type CollectibleConfig struct {
	MaxSearchResults int `yaml:"max_search_results" mapstructure:"max_search_results"`
	MaxVenueLength   int `yaml:"max_venue_length" mapstructure:"max_venue_length"`
	MaxURLLength     int `yaml:"max_url_length" mapstructure:"max_url_length"`
}

// UsageLogConfig configures the sqlite usage log.
type UsageLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SNAPATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.vision_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.text_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("jina.base_url", "https://s.jina.ai")
	v.SetDefault("jina.max_results", 5)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.default_radius_m", 500)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "snapatlas-enrich/1.0")
	v.SetDefault("nominatim.rate_rps", 1)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.trail_radius_m", 800)
	v.SetDefault("cache.reverse_ttl_hours", 24)
	v.SetDefault("cache.places_ttl_hours", 6)
	v.SetDefault("cache.trails_ttl_hours", 24)
	v.SetDefault("cache.max_entries", 2048)
	v.SetDefault("food.start_radius_m", 100)
	v.SetDefault("food.max_radius_m", 800)
	v.SetDefault("food.auto_select_meters", 50)
	v.SetDefault("food.auto_select_rating", 4.0)
	v.SetDefault("food.min_keyword_score", 2)
	v.SetDefault("food.max_candidates", 10)
	v.SetDefault("collectible.max_search_results", 5)
	v.SetDefault("collectible.max_venue_length", 128)
	v.SetDefault("collectible.max_url_length", 512)
	v.SetDefault("usage_log.path", "snapatlas.db")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
