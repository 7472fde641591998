package yelp

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

const site = "yelp"

const (
	searchPath  = "/search"
	graphQLPath = "/gql"

	csrfMarker = "yelp.www.init.csrf"
)

var csrfPattern = regexp.MustCompile(`csrf: "([^"]+)"`)

// Options wires a Client to its collaborators
type Options struct {
	Config  config.YelpConfig
	Session *transport.Session
	Pacer   ratelimit.Pacer
	Logger  logger.Logger
}

// Client searches business listings, preferring the GraphQL endpoint and
// falling back to the server-rendered results page.
type Client struct {
	cfg        config.YelpConfig
	baseURL    string
	session    *transport.Session
	pacer      ratelimit.Pacer
	log        logger.Logger
	normalizer *Normalizer
	structured *graphQLSearch
	page       *pageSearch

	csrfToken string
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
	c.structured = &graphQLSearch{client: c}
	c.page = &pageSearch{client: c}

	if err := c.bootstrap(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// HasCSRFToken reports whether the structured path is available
func (c *Client) HasCSRFToken() bool {
	return c.csrfToken != ""
}

func (c *Client) bootstrap(ctx context.Context) error {
	const stage = "landing_page"

	c.session.SetHeaders(map[string]string{
		"Accept":         "application/json",
		"Referer":        c.baseURL + "/",
		"Origin":         c.baseURL,
		"DNT":            "1",
		"Sec-Fetch-Dest": "empty",
		"Sec-Fetch-Mode": "cors",
		"Sec-Fetch-Site": "same-origin",
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

	c.csrfToken = markup.ScriptCapture(doc, csrfMarker, csrfPattern)
	if c.csrfToken == "" {
		c.log.Warn("CSRF token not found, structured search unavailable")
		return nil
	}

	c.session.SetHeader("X-CSRF-Token", c.csrfToken)
	c.log.Debug("found CSRF token")
	return nil
}
