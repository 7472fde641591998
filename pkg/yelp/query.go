package yelp

import (
	"context"
	"regexp"
	"strconv"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
	"github.com/titanous/json5"
)

const searchPageQuery = `query SearchPage($term: String!, $location: String!, $offset: Int!, $limit: Int!, $sortBy: String!) {
  search(term: $term, location: $location, offset: $offset, limit: $limit, sortBy: $sortBy) {
    total
    business {
      id
      name
      url
      photos
      rating
      review_count
      price
      categories { title alias }
      location { address1 city state postal_code formatted_address }
      phone
      distance
    }
    region { center { latitude longitude } }
  }
}`

const initialStateMarker = "window.__INITIAL_STATE__ = "

var initialStatePattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__ = (.+?);\s*window\.__INITIAL_PROPS__`)

// graphQLSearch posts the SearchPage operation
type graphQLSearch struct {
	client *Client
}

func (s *graphQLSearch) Kind() search.SourceKind {
	return search.Structured
}

func (s *graphQLSearch) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	const stage = "graphql_search"
	c := s.client

	if c.csrfToken == "" {
		return search.RawResult{}, errs.MissingToken(site, stage, "CSRF token")
	}

	body := map[string]interface{}{
		"operationName": "SearchPage",
		"variables": map[string]interface{}{
			"term":     req.Query,
			"location": req.Location,
			"offset":   req.Offset,
			"limit":    req.Limit,
			"sortBy":   "best_match",
		},
		"query": searchPageQuery,
	}

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return search.RawResult{}, err
	}

	resp, err := c.session.PostJSON(ctx, c.baseURL+graphQLPath, body, map[string]string{
		"X-CSRF-Token": c.csrfToken,
	})
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, 0, "request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeQuery, site, stage); err != nil {
		return search.RawResult{}, err
	}

	return search.RawResult{Kind: search.Structured, Payload: resp.Body}, nil
}

// pageSearch fetches the results page and returns its embedded state when
// present, otherwise the parsed page itself.
type pageSearch struct {
	client *Client
}

func (s *pageSearch) Kind() search.SourceKind {
	return search.EmbeddedState
}

func (s *pageSearch) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	const stage = "results_page"
	c := s.client

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return search.RawResult{}, err
	}

	c.log.InfoWithFields("searching", map[string]interface{}{
		"term":     req.Query,
		"location": req.Location,
		"offset":   req.Offset,
	})

	resp, err := c.session.Get(ctx, c.baseURL+searchPath, map[string]string{
		"find_desc": req.Query,
		"find_loc":  req.Location,
		"start":     strconv.Itoa(req.Offset),
	}, nil)
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, 0, "request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeQuery, site, stage); err != nil {
		return search.RawResult{}, err
	}

	doc, err := markup.Parse(resp.Body)
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, resp.StatusCode, "unparsable results page", err)
	}

	for _, script := range markup.Scripts(doc, initialStateMarker) {
		blob := markup.Capture(initialStatePattern, script)
		if blob == "" {
			continue
		}
		var probe map[string]interface{}
		if err := json5.Unmarshal([]byte(blob), &probe); err != nil {
			c.log.WithError(err).Debug("skipping undecodable initial state")
			continue
		}
		if _, ok := probe["searchPageProps"]; ok {
			return search.RawResult{Kind: search.EmbeddedState, Payload: []byte(blob)}, nil
		}
	}

	c.log.Warn("initial state not found, falling back to markup parsing")
	return search.RawResult{Kind: search.Markup, Document: doc}, nil
}

// Query fetches and normalizes one batch. The structured path is tried first
// when the session holds a CSRF token; any failure there falls back to the
// results page for this batch.
func (c *Client) Query(ctx context.Context, req search.Request) (search.Page[models.Business], error) {
	if c.HasCSRFToken() {
		page, err := c.queryWith(ctx, c.structured, req)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return search.Page[models.Business]{}, ctx.Err()
		}
		c.log.WithError(err).Warn("structured search failed, falling back to results page")
	}
	return c.queryWith(ctx, c.page, req)
}

func (c *Client) queryWith(ctx context.Context, strategy search.Strategy, req search.Request) (search.Page[models.Business], error) {
	raw, err := strategy.Execute(ctx, req)
	if err != nil {
		return search.Page[models.Business]{}, err
	}
	return c.normalizer.Normalize(raw)
}
