package twitter

import (
	"context"
	"encoding/json"
	"fmt"

	"apiscraper/pkg/config"
	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/ratelimit"
	"apiscraper/pkg/transport"
)

// Options wires a Client to its collaborators
type Options struct {
	Config  config.TwitterConfig
	Session *transport.Session
	Pacer   ratelimit.Pacer
	Logger  logger.Logger
}

// Client searches posts through the guest-token GraphQL search timeline
type Client struct {
	cfg        config.TwitterConfig
	session    *transport.Session
	pacer      ratelimit.Pacer
	log        logger.Logger
	normalizer *Normalizer
	strategy   *graphQLSearch
	guestToken string
}

// NewClient creates a client and bootstraps its session. A configured guest
// token is used as-is; otherwise one is activated with the bearer credential.
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

	c := &Client{
		cfg:        opts.Config,
		session:    session,
		pacer:      pacer,
		log:        log,
		normalizer: NewNormalizer(log),
	}
	c.strategy = &graphQLSearch{client: c}

	if err := c.bootstrap(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// GuestToken returns the token installed during bootstrap
func (c *Client) GuestToken() string {
	return c.guestToken
}

func (c *Client) bootstrap(ctx context.Context) error {
	home := origin(c.cfg.GraphQLBaseURL)
	c.session.SetHeaders(map[string]string{
		"Accept":                    "*/*",
		"Referer":                   home + "/search",
		"Origin":                    home,
		"X-Twitter-Client-Language": "en",
		"X-Twitter-Active-User":     "yes",
		"Sec-Fetch-Dest":            "empty",
		"Sec-Fetch-Mode":            "cors",
		"Sec-Fetch-Site":            "same-origin",
	})

	token := c.cfg.GuestToken
	if token == "" {
		var err error
		token, err = c.activateGuestToken(ctx)
		if err != nil {
			return err
		}
	} else {
		c.log.Debug("using configured guest token")
	}

	c.guestToken = token
	c.session.SetHeader("X-Guest-Token", token)
	if c.cfg.BearerToken != "" {
		c.session.SetHeader("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	return nil
}

func (c *Client) activateGuestToken(ctx context.Context) (string, error) {
	const stage = "guest_activation"

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return "", err
	}

	resp, err := c.session.PostJSON(ctx, joinURL(c.cfg.APIBaseURL, activatePath), nil, map[string]string{
		"Authorization": "Bearer " + c.cfg.BearerToken,
	})
	if err != nil {
		return "", errs.Bootstrap(site, stage, 0, "activation request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeBootstrap, site, stage); err != nil {
		return "", err
	}

	var body struct {
		GuestToken string `json:"guest_token"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", errs.Bootstrap(site, stage, resp.StatusCode, "undecodable activation response", err).WithBody(resp.Body)
	}
	if body.GuestToken == "" {
		return "", errs.Bootstrap(site, stage, resp.StatusCode, "guest_token missing from activation response", nil).WithBody(resp.Body)
	}

	c.log.InfoWithFields("obtained guest token", map[string]interface{}{
		"token_prefix": fmt.Sprintf("%.5s...", body.GuestToken),
	})
	return body.GuestToken, nil
}
