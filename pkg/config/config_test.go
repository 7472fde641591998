package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 20, cfg.Twitter.PageSize)
	assert.Equal(t, 10, cfg.Indeed.PageSize)
	assert.Equal(t, 10, cfg.Yelp.PageSize)

	assert.Equal(t, Delay{Min: 2 * time.Second, Max: 5 * time.Second}, cfg.Twitter.Pacing.Request)
	assert.Equal(t, Delay{Min: 3 * time.Second, Max: 6 * time.Second}, cfg.Twitter.Pacing.Page)
	assert.Equal(t, Delay{Min: 2 * time.Second, Max: 4 * time.Second}, cfg.Indeed.Pacing.Request)
	assert.Equal(t, Delay{Min: 3 * time.Second, Max: 5 * time.Second}, cfg.Yelp.Pacing.Page)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APISCRAPER_LOG_LEVEL", "debug")
	t.Setenv("APISCRAPER_MAX_RESULTS", "15")
	t.Setenv("APISCRAPER_HTTP_TIMEOUT", "5s")
	t.Setenv("APISCRAPER_TWITTER_GUEST_TOKEN", "guest-123")
	t.Setenv("APISCRAPER_OUTPUT_DIR", "/tmp/results")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 15, cfg.Search.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "guest-123", cfg.Twitter.GuestToken)
	assert.Equal(t, "/tmp/results", cfg.Output.Directory)
}

func TestLoadFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("APISCRAPER_MAX_RESULTS", "many")
	t.Setenv("APISCRAPER_HTTP_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APISCRAPER_MAX_RESULTS")
	assert.Contains(t, err.Error(), "APISCRAPER_HTTP_TIMEOUT")
	assert.Equal(t, 50, cfg.Search.MaxResults)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  timeout: 12s
indeed:
  page_size: 5
  pacing:
    page: {min: 1s, max: 2s}
search:
  max_results: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 12*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.Indeed.PageSize)
	assert.Equal(t, Delay{Min: time.Second, Max: 2 * time.Second}, cfg.Indeed.Pacing.Page)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	// untouched sections keep their defaults
	assert.Equal(t, 20, cfg.Twitter.PageSize)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0644))
	err = cfg.LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:    "min delay above max",
			modify:  func(c *Config) { c.Yelp.Pacing.Page = Delay{Min: 5 * time.Second, Max: time.Second} },
			wantErr: "yelp page pacing",
		},
		{
			name:    "negative delay",
			modify:  func(c *Config) { c.Twitter.Pacing.Request.Min = -time.Second },
			wantErr: "twitter request pacing",
		},
		{
			name:    "zero page size",
			modify:  func(c *Config) { c.Indeed.PageSize = 0 },
			wantErr: "indeed page size must be positive",
		},
		{
			name:    "negative max results",
			modify:  func(c *Config) { c.Search.MaxResults = -1 },
			wantErr: "max results cannot be negative",
		},
		{
			name:    "relative base url",
			modify:  func(c *Config) { c.Yelp.BaseURL = "/yelp" },
			wantErr: "yelp base url must be an absolute URL",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "invalid output format",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
		{
			name: "guest token stands in for bearer",
			modify: func(c *Config) {
				c.Twitter.BearerToken = ""
				c.Twitter.GuestToken = "abc"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Indeed.PageSize = 0
	cfg.Output.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indeed page size")
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Merge(&Config{
		Logging: LoggingConfig{Level: "warn"},
		Output:  OutputConfig{Directory: "out"},
		HTTP:    HTTPConfig{HARFile: "capture.har"},
	})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "capture.har", cfg.HTTP.HARFile)
	// zero values in the override leave defaults alone
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "json", cfg.Output.Format)

	assert.NoError(t, cfg.Merge(nil))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\nsearch:\n  max_results: 30\n"), 0644))

	t.Setenv("APISCRAPER_MAX_RESULTS", "40")

	cfg, err := Load(path, &Config{Logging: LoggingConfig{Level: "debug"}})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 40, cfg.Search.MaxResults)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: csv\n"), 0644))
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Yelp.PageSize = 3
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestExampleParses(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(Example()), cfg))
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultConfig().Twitter.Pacing, cfg.Twitter.Pacing)
}

func TestLoadFindsDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APISCRAPER_MAX_RESULTS", "")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.MaxResults)

	require.NoError(t, os.WriteFile(DefaultFile, []byte(Example()+"\n"), 0644))
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.MaxResults)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("search:\n  max_results: 7\n"), 0644))
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}
