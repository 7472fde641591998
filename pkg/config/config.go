package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "APISCRAPER_"

// Config holds all configuration options for the search clients and the CLI
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`
	Indeed  IndeedConfig  `yaml:"indeed" json:"indeed"`
	Yelp    YelpConfig    `yaml:"yelp" json:"yelp"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// HTTPConfig holds transport settings shared by every session
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects"`
	// HARFile seeds session cookies from a browser capture.
	HARFile string `yaml:"har_file" json:"har_file"`
}

// Delay is an inclusive range for a uniformly random pause
type Delay struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// PacingConfig holds the delay before each request and the wider delay between pages
type PacingConfig struct {
	Request Delay `yaml:"request" json:"request"`
	Page    Delay `yaml:"page" json:"page"`
}

// TwitterConfig holds settings for the social search client
type TwitterConfig struct {
	APIBaseURL      string       `yaml:"api_base_url" json:"api_base_url"`
	GraphQLBaseURL  string       `yaml:"graphql_base_url" json:"graphql_base_url"`
	SearchOperation string       `yaml:"search_operation" json:"search_operation"`
	BearerToken     string       `yaml:"bearer_token" json:"bearer_token"`
	GuestToken      string       `yaml:"guest_token" json:"guest_token"`
	Product         string       `yaml:"product" json:"product"`
	PageSize        int          `yaml:"page_size" json:"page_size"`
	Pacing          PacingConfig `yaml:"pacing" json:"pacing"`
}

// IndeedConfig holds settings for the job search client
type IndeedConfig struct {
	BaseURL  string       `yaml:"base_url" json:"base_url"`
	PageSize int          `yaml:"page_size" json:"page_size"`
	Pacing   PacingConfig `yaml:"pacing" json:"pacing"`
}

// YelpConfig holds settings for the business search client
type YelpConfig struct {
	BaseURL  string       `yaml:"base_url" json:"base_url"`
	PageSize int          `yaml:"page_size" json:"page_size"`
	Pacing   PacingConfig `yaml:"pacing" json:"pacing"`
}

// SearchConfig holds per-run search options
type SearchConfig struct {
	MaxResults       int `yaml:"max_results" json:"max_results"`
	ProgressInterval int `yaml:"progress_interval" json:"progress_interval"`
}

// OutputConfig holds result output options
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Format    string `yaml:"format" json:"format"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			MaxRedirects: 10,
		},
		Twitter: TwitterConfig{
			APIBaseURL:      "https://api.twitter.com",
			GraphQLBaseURL:  "https://twitter.com/i/api/graphql",
			SearchOperation: "7s4lUZO6Cgy-BdpXmK_MUQ/SearchTimeline",
			BearerToken:     "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs=1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA",
			Product:         "Top",
			PageSize:        20,
			Pacing: PacingConfig{
				Request: Delay{Min: 2 * time.Second, Max: 5 * time.Second},
				Page:    Delay{Min: 3 * time.Second, Max: 6 * time.Second},
			},
		},
		Indeed: IndeedConfig{
			BaseURL:  "https://www.indeed.com",
			PageSize: 10,
			Pacing: PacingConfig{
				Request: Delay{Min: 2 * time.Second, Max: 4 * time.Second},
				Page:    Delay{Min: 3 * time.Second, Max: 5 * time.Second},
			},
		},
		Yelp: YelpConfig{
			BaseURL:  "https://www.yelp.com",
			PageSize: 10,
			Pacing: PacingConfig{
				Request: Delay{Min: 2 * time.Second, Max: 4 * time.Second},
				Page:    Delay{Min: 3 * time.Second, Max: 5 * time.Second},
			},
		},
		Search: SearchConfig{
			MaxResults:       50,
			ProgressInterval: 10,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = n
	}
	setDuration := func(name string, dst *time.Duration) {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = d
	}

	setDuration("HTTP_TIMEOUT", &c.HTTP.Timeout)
	setString("USER_AGENT", &c.HTTP.UserAgent)
	setString("HAR_FILE", &c.HTTP.HARFile)
	setString("TWITTER_GUEST_TOKEN", &c.Twitter.GuestToken)
	setString("TWITTER_BEARER_TOKEN", &c.Twitter.BearerToken)
	setInt("MAX_RESULTS", &c.Search.MaxResults)
	setString("OUTPUT_DIR", &c.Output.Directory)
	setString("OUTPUT_FORMAT", &c.Output.Format)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultFile is the name `config init` writes and the loader looks for first
const DefaultFile = "apiscraper.yaml"

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		DefaultFile,
		"apiscraper.yml",
		".apiscraper.yaml",
		".apiscraper.yml",
		filepath.Join(home, ".config", "apiscraper", "config.yaml"),
		filepath.Join(home, ".apiscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.MaxRedirects < 0 {
		errs = append(errs, errors.New("max redirects cannot be negative"))
	}

	checkURL := func(name, raw string) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	checkURL("twitter api base url", c.Twitter.APIBaseURL)
	checkURL("twitter graphql base url", c.Twitter.GraphQLBaseURL)
	checkURL("indeed base url", c.Indeed.BaseURL)
	checkURL("yelp base url", c.Yelp.BaseURL)

	if c.Twitter.SearchOperation == "" {
		errs = append(errs, errors.New("twitter search operation is required"))
	}
	if c.Twitter.BearerToken == "" && c.Twitter.GuestToken == "" {
		errs = append(errs, errors.New("twitter bearer token is required unless a guest token is set"))
	}

	sites := []struct {
		name     string
		pageSize int
		pacing   PacingConfig
	}{
		{"twitter", c.Twitter.PageSize, c.Twitter.Pacing},
		{"indeed", c.Indeed.PageSize, c.Indeed.Pacing},
		{"yelp", c.Yelp.PageSize, c.Yelp.Pacing},
	}
	for _, s := range sites {
		if s.pageSize <= 0 {
			errs = append(errs, fmt.Errorf("%s page size must be positive", s.name))
		}
		if err := s.pacing.Request.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s request pacing: %w", s.name, err))
		}
		if err := s.pacing.Page.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s page pacing: %w", s.name, err))
		}
	}

	if c.Search.MaxResults < 0 {
		errs = append(errs, errors.New("max results cannot be negative"))
	}
	if c.Search.ProgressInterval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}

	validFormats := map[string]bool{"json": true, "table": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (d Delay) validate() error {
	if d.Min < 0 || d.Max < 0 {
		return errors.New("delay cannot be negative")
	}
	if d.Min > d.Max {
		return fmt.Errorf("min delay %s exceeds max delay %s", d.Min, d.Max)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge applies the non-zero values of overrides on top of c
func (c *Config) Merge(overrides *Config) error {
	if overrides == nil {
		return nil
	}
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge overrides: %w", err)
	}
	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: overrides > Environment variables > .env file > Config file > Defaults
func Load(configPath string, overrides *Config) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".apiscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Merge(overrides); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
