package indeed

import (
	"context"
	"regexp"
	"strings"

	"apiscraper/pkg/config"
	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/ratelimit"
	"apiscraper/pkg/transport"
)

const site = "indeed"

const (
	searchPath  = "/jobs"
	graphQLPath = "/api/graphql"
	viewJobPath = "/viewjob"
)

var graphQLTokenPattern = regexp.MustCompile(`"csrfToken":"([^"]+)"`)

// Options wires a Client to its collaborators
type Options struct {
	Config  config.IndeedConfig
	Session *transport.Session
	Pacer   ratelimit.Pacer
	Logger  logger.Logger
}

// Client searches job postings through the results page, upgrading to the
// GraphQL API when the page exposes a job-cards provider id.
type Client struct {
	cfg        config.IndeedConfig
	baseURL    string
	session    *transport.Session
	pacer      ratelimit.Pacer
	log        logger.Logger
	normalizer *Normalizer

	// csrfToken comes from the landing page meta tag; graphQLToken from its
	// initial-data script. Both are fixed after bootstrap.
	csrfToken    string
	graphQLToken string
}

// NewClient creates a client and bootstraps its session from the landing page
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	log := logger.OrNop(opts.Logger).WithField("site", site)

	session := opts.Session
	if session == nil {
		var err error
		session, err = transport.NewSession(site, config.DefaultConfig().HTTP, log)
		if err != nil {
			return nil, err
		}
	}
	pacer := opts.Pacer
	if pacer == nil {
		pacer = ratelimit.NewJitter(log)
	}

	baseURL := strings.TrimRight(opts.Config.BaseURL, "/")
	c := &Client{
		cfg:        opts.Config,
		baseURL:    baseURL,
		session:    session,
		pacer:      pacer,
		log:        log,
		normalizer: NewNormalizer(baseURL, log),
	}

	if err := c.bootstrap(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// HasGraphQLToken reports whether the structured path can be used
func (c *Client) HasGraphQLToken() bool {
	return c.graphQLToken != ""
}

func (c *Client) bootstrap(ctx context.Context) error {
	const stage = "landing_page"

	c.session.SetHeaders(map[string]string{
		"Accept":  "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Referer": c.baseURL + "/",
	})

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return err
	}

	resp, err := c.session.Get(ctx, c.baseURL, nil, nil)
	if err != nil {
		return errs.Bootstrap(site, stage, 0, "landing page request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeBootstrap, site, stage); err != nil {
		return err
	}

	doc, err := markup.Parse(resp.Body)
	if err != nil {
		return errs.Bootstrap(site, stage, resp.StatusCode, "unparsable landing page", err)
	}

	if token := markup.OptionalAttr(doc.Find("meta#indeed-csrf-token"), "content"); token != nil {
		c.csrfToken = *token
		c.session.SetHeader("Indeed-CSRF-Token", c.csrfToken)
		c.log.Debug("found CSRF token")
	} else {
		c.log.Warn("CSRF token not found on landing page")
	}

	c.graphQLToken = markup.ScriptCapture(doc, "window._initialData", graphQLTokenPattern)
	if c.graphQLToken != "" {
		c.log.Debug("found GraphQL CSRF token")
	} else {
		c.log.Warn("GraphQL CSRF token not found, structured search unavailable")
	}

	return nil
}
