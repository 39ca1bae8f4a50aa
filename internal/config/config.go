package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Market  Market  `mapstructure:"market"`
	News    News    `mapstructure:"news"`
	Geocode Geocode `mapstructure:"geocode"`
	Server  Server  `mapstructure:"server"`
	Cache   Cache   `mapstructure:"cache"`
	Logging Logging `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration for the report pipeline
type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Temperature    float32       `mapstructure:"temperature"`
	ThinkingBudget int32         `mapstructure:"thinking_budget"`
	RatePerMinute  float64       `mapstructure:"rate_per_minute"`
}

// OpenAIConfig holds OpenAI configuration for enrichment and forecasting
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Market holds Finnhub market data configuration
type Market struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// News holds NewsAPI configuration
type News struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Geocode holds reverse-geocoding (Nominatim) configuration
type Geocode struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORS          `mapstructure:"cors"`
}

// CORS holds CORS configuration for the HTTP server
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Cache holds TTL configuration for cached collaborator responses
type Cache struct {
	Quotes   time.Duration `mapstructure:"quotes"`
	Candles  time.Duration `mapstructure:"candles"`
	Geocode  time.Duration `mapstructure:"geocode"`
	Insights time.Duration `mapstructure:"insights"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from .env, config file, environment and defaults
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".predicta")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.temperature", 0.7)
	viper.SetDefault("ai.gemini.thinking_budget", 2048)
	viper.SetDefault("ai.gemini.rate_per_minute", 10)
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.openai.timeout", "30s")

	// Market data defaults
	viper.SetDefault("market.base_url", "https://finnhub.io/api/v1")
	viper.SetDefault("market.timeout", "15s")

	// News defaults
	viper.SetDefault("news.base_url", "https://newsapi.org/v2")
	viper.SetDefault("news.timeout", "15s")

	// Geocoding defaults
	viper.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocode.timeout", "10s")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	// Cache defaults mirror the upstream revalidation windows
	viper.SetDefault("cache.quotes", "60s")
	viper.SetDefault("cache.candles", "1h")
	viper.SetDefault("cache.geocode", "24h")
	viper.SetDefault("cache.insights", "10m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	// OpenAI API key
	bindEnvKeys("ai.openai.api_key", []string{
		"OPENAI_API_KEY",
		"OPEN_API_KEY",
	})

	// Market and news API keys
	bindEnvKeys("market.api_key", []string{"FINNHUB_API_KEY"})
	bindEnvKeys("news.api_key", []string{"NEWS_API_KEY"})
}

// bindEnvKeys binds the first set environment variable to a config key
func bindEnvKeys(configKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(configKey, value)
			return
		}
	}
}
