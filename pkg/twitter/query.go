package twitter

import (
	"context"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
)

// graphQLSearch runs one SearchTimeline page
type graphQLSearch struct {
	client *Client
}

func (s *graphQLSearch) Kind() search.SourceKind {
	return search.Structured
}

func (s *graphQLSearch) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	const stage = "search_timeline"
	c := s.client

	params, err := graphQLParams(
		searchVariables(req.Query, req.Limit, c.cfg.Product, req.Cursor),
		searchFeatures(),
	)
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, 0, "failed to encode parameters", err)
	}

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return search.RawResult{}, err
	}

	resp, err := c.session.Get(ctx, joinURL(c.cfg.GraphQLBaseURL, c.cfg.SearchOperation), params, nil)
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, 0, "request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeQuery, site, stage); err != nil {
		return search.RawResult{}, err
	}

	return search.RawResult{Kind: search.Structured, Payload: resp.Body}, nil
}

// Query fetches and normalizes a single page of results
func (c *Client) Query(ctx context.Context, req search.Request) (search.Page[models.Tweet], error) {
	raw, err := c.strategy.Execute(ctx, req)
	if err != nil {
		return search.Page[models.Tweet]{}, err
	}
	return c.normalizer.Normalize(raw)
}
