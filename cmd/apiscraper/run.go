package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"apiscraper/pkg/config"
	"apiscraper/pkg/har"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/pagination"
	"apiscraper/pkg/ratelimit"
	"apiscraper/pkg/storage"
	"apiscraper/pkg/transport"
	"apiscraper/pkg/ui"
	"github.com/corpix/uarand"
	"github.com/spf13/cobra"
)

// runtimeEnv is what every search command needs once flags are resolved
type runtimeEnv struct {
	cfg   *config.Config
	log   logger.Logger
	pacer ratelimit.Pacer
}

// loadConfig resolves configuration with command line flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	overrides := &config.Config{}
	if flags.Changed("log-level") {
		overrides.Logging.Level = logLevel
	}
	if flags.Changed("output-dir") {
		overrides.Output.Directory = outputDir
	}
	if flags.Changed("format") {
		overrides.Output.Format = outputFormat
	}
	if flags.Changed("har") {
		overrides.HTTP.HARFile = harFile
	}
	if flags.Changed("max-results") {
		overrides.Search.MaxResults = maxResults
	}

	cfg, err := config.Load(configFile, overrides)
	if err != nil {
		return nil, err
	}

	// zero values are skipped by the merge
	if flags.Changed("max-results") {
		if maxResults < 0 {
			return nil, fmt.Errorf("--max-results must not be negative")
		}
		cfg.Search.MaxResults = maxResults
	}
	if quiet && !flags.Changed("log-level") {
		cfg.Logging.Level = "error"
	}
	return cfg, nil
}

func newRuntime(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = uarand.GetRandom()
	}
	// the session falls back to transport.DefaultUserAgent when still empty

	return &runtimeEnv{cfg: cfg, log: log, pacer: ratelimit.NewJitter(log)}, nil
}

// newSession creates a session for site, seeding cookies from the HAR file
// for each of baseURLs when one is configured.
func (r *runtimeEnv) newSession(site string, baseURLs ...string) (*transport.Session, error) {
	session, err := transport.NewSession(site, r.cfg.HTTP, r.log)
	if err != nil {
		return nil, err
	}
	if r.cfg.HTTP.HARFile == "" {
		return session, nil
	}

	archive, err := har.Load(r.cfg.HTTP.HARFile)
	if err != nil {
		return nil, err
	}
	for _, base := range baseURLs {
		cookies := archive.Cookies(cookieDomain(base))
		if len(cookies) == 0 {
			continue
		}
		if err := session.SetCookies(base, cookies); err != nil {
			return nil, err
		}
		r.log.InfoWithFields("seeded cookies from HAR file", map[string]interface{}{
			"url":   base,
			"count": len(cookies),
		})
	}
	return session, nil
}

// cookieDomain reduces a base URL to its registrable domain, e.g.
// https://www.yelp.com -> yelp.com
func cookieDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	labels := strings.Split(u.Hostname(), ".")
	if len(labels) <= 2 {
		return u.Hostname()
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// collect drains it, logging progress every configured interval
func collect[T any](ctx context.Context, r *runtimeEnv, site string, it *pagination.Iterator[T]) ([]T, error) {
	interval := r.cfg.Search.ProgressInterval
	tracker := ui.NewStatusTracker(site, r.cfg.Search.MaxResults)

	records := []T{}
	for rec, err := range it.All(ctx) {
		if err != nil {
			r.log.WithError(err).ErrorWithFields("search failed", map[string]interface{}{
				"site":      site,
				"collected": len(records),
			})
			return records, err
		}
		records = append(records, rec)
		tracker.Increment()
		if interval > 0 && len(records)%interval == 0 {
			r.log.InfoWithFields("collected results", map[string]interface{}{
				"site":  site,
				"count": len(records),
			})
			tracker.PrintProgress()
		}
	}

	r.log.InfoWithFields("search completed", map[string]interface{}{
		"site":    site,
		"count":   len(records),
		"batches": it.Batches(),
	})
	return records, nil
}

// emit saves records under the output directory or prints them to stdout
func emit[T any](r *runtimeEnv, records []T, filename string, table func([]T) ([]string, [][]string)) error {
	if dir := r.cfg.Output.Directory; dir != "" {
		manager, err := storage.NewManager(dir)
		if err != nil {
			return err
		}
		if manager.Exists(filename) {
			r.log.WarnWithFields("overwriting existing results file", map[string]interface{}{"file": filename})
		}
		path, err := manager.SaveJSON(filename, records)
		if err != nil {
			return err
		}
		r.log.InfoWithFields("results saved", map[string]interface{}{"path": path, "count": len(records)})
		ui.PrintSuccess(fmt.Sprintf("Saved %d results to %s", len(records), path))
		return nil
	}

	if r.cfg.Output.Format == "table" {
		header, rows := table(records)
		ui.RenderTable(os.Stdout, header, rows)
		return nil
	}
	return ui.WriteJSON(os.Stdout, records)
}
