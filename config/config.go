package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Search    SearchConfig
	Vision    VisionConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Taxonomy  TaxonomyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
	MaxFiles       int      `mapstructure:"max_files"`
	Debug          bool     `mapstructure:"debug"`
}

// ScraperConfig holds product page scraper configuration
type ScraperConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	MaxImages    int           `mapstructure:"max_images"`
	MaxRawText   int           `mapstructure:"max_raw_text"`
	UserAgents   []string      `mapstructure:"user_agents"`
}

// SearchConfig holds web search API configuration
type SearchConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	APIKey               string        `mapstructure:"api_key"`
	EngineID             string        `mapstructure:"engine_id"`
	NumResults           int           `mapstructure:"num_results"`
	MinSnippetAttributes int           `mapstructure:"min_snippet_attributes"`
	ResultScrapeLimit    int           `mapstructure:"result_scrape_limit"`
	ResultScrapeTimeout  time.Duration `mapstructure:"result_scrape_timeout"`
	ExcludedDomains      []string      `mapstructure:"excluded_domains"`
}

// Configured reports whether search credentials are present
func (s SearchConfig) Configured() bool {
	return s.APIKey != "" && s.EngineID != ""
}

// VisionConfig holds screenshot analysis API configuration
type VisionConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"`
	Search int `mapstructure:"search"`
}

// TaxonomyConfig selects the category taxonomy file and classifier strategy
type TaxonomyConfig struct {
	Path     string `mapstructure:"path"` // empty means the embedded default
	Strategy string `mapstructure:"strategy"`
}

// Classifier strategy names
const (
	StrategyWeighted    = "weighted"
	StrategySpecificity = "specificity"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading the given file when path is set
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/qc-engine/")
	}

	// QCENGINE_SEARCH_API_KEY -> search.api_key
	v.SetEnvPrefix("QCENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.max_files", 10)
	v.SetDefault("server.debug", false)

	// Scraper defaults
	v.SetDefault("scraper.timeout", "15s")
	v.SetDefault("scraper.max_retries", 2)
	v.SetDefault("scraper.retry_backoff", "1s")
	v.SetDefault("scraper.max_images", 10)
	v.SetDefault("scraper.max_raw_text", 5000)
	v.SetDefault("scraper.user_agents", defaultUserAgents)

	// Search defaults
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.num_results", 5)
	v.SetDefault("search.min_snippet_attributes", 5)
	v.SetDefault("search.result_scrape_limit", 2)
	v.SetDefault("search.result_scrape_timeout", "8s")
	v.SetDefault("search.excluded_domains", []string{"offineeds.com"})

	// Vision defaults
	v.SetDefault("vision.base_url", "https://api.anthropic.com")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("vision.max_tokens", 4096)
	v.SetDefault("vision.timeout", "60s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.search", 100)

	// Taxonomy defaults
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("taxonomy.strategy", StrategyWeighted)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Taxonomy.Strategy != StrategyWeighted && config.Taxonomy.Strategy != StrategySpecificity {
		return fmt.Errorf("taxonomy strategy must be '%s' or '%s', got: %s",
			StrategyWeighted, StrategySpecificity, config.Taxonomy.Strategy)
	}

	if config.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper max_retries must be >= 0, got: %d", config.Scraper.MaxRetries)
	}

	if config.Search.NumResults < 1 || config.Search.NumResults > 10 {
		return fmt.Errorf("search num_results must be between 1 and 10, got: %d", config.Search.NumResults)
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs from ./.env into the process environment.
// Existing variables are never overridden. A missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return scanner.Err()
}
