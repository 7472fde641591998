package indeed

import (
	"context"
	"strconv"

	errs "apiscraper/pkg/errors"
	"apiscraper/pkg/markup"
	"apiscraper/pkg/models"
	"apiscraper/pkg/search"
	"github.com/PuerkitoBio/goquery"
)

const jobSearchQuery = `query JobSearchResults($searchParams: JobSearchParams!, $mosaicProviderJobCardsKeyword: String!) {
  jobSearch(params: $searchParams) {
    results {
      job {
        key
        title
        company { name reviewCount rating }
        location { city state country }
        salarySnippet { text }
        jobTypes
        description
        url
        postingDate
      }
    }
    pageInfo { totalResults nextPageToken }
  }
}`

// graphQLSearch posts the JobSearchResults operation for a probed page
type graphQLSearch struct {
	client   *Client
	mosaicID string
}

func (s *graphQLSearch) Kind() search.SourceKind {
	return search.Structured
}

func (s *graphQLSearch) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	const stage = "graphql_search"
	c := s.client

	if c.graphQLToken == "" {
		return search.RawResult{}, errs.MissingToken(site, stage, "GraphQL CSRF token")
	}

	body := map[string]interface{}{
		"operationName": "JobSearchResults",
		"variables": map[string]interface{}{
			"searchParams": map[string]interface{}{
				"keyword":  req.Query,
				"location": req.Location,
				"page":     req.Page,
				"pageSize": req.Limit,
				"sortBy":   "relevance",
			},
			"mosaicProviderJobCardsKeyword": s.mosaicID,
		},
		"query": jobSearchQuery,
	}

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return search.RawResult{}, err
	}

	resp, err := c.session.PostJSON(ctx, c.baseURL+graphQLPath, body, map[string]string{
		"Indeed-CSRF-Token": c.graphQLToken,
	})
	if err != nil {
		return search.RawResult{}, errs.Query(site, stage, 0, "request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeQuery, site, stage); err != nil {
		return search.RawResult{}, err
	}

	return search.RawResult{Kind: search.Structured, Payload: resp.Body}, nil
}

// markupPage reuses an already fetched results page
type markupPage struct {
	doc *goquery.Document
}

func (s *markupPage) Kind() search.SourceKind {
	return search.Markup
}

func (s *markupPage) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	return search.RawResult{Kind: search.Markup, Document: s.doc}, nil
}

// selectStrategy fetches the results page and picks the path for this batch
func (c *Client) selectStrategy(ctx context.Context, req search.Request) (search.Strategy, error) {
	const stage = "results_page"

	if err := c.pacer.Pace(ctx, c.cfg.Pacing.Request); err != nil {
		return nil, err
	}

	c.log.InfoWithFields("searching", map[string]interface{}{
		"query":    req.Query,
		"location": req.Location,
		"page":     req.Page,
	})

	resp, err := c.session.Get(ctx, c.baseURL+searchPath, map[string]string{
		"q":     req.Query,
		"l":     req.Location,
		"start": strconv.Itoa(req.Offset),
		"limit": strconv.Itoa(req.Limit),
	}, nil)
	if err != nil {
		return nil, errs.Query(site, stage, 0, "request failed", err)
	}
	if err := resp.Check(errs.ErrorTypeQuery, site, stage); err != nil {
		return nil, err
	}

	doc, err := markup.Parse(resp.Body)
	if err != nil {
		return nil, errs.Query(site, stage, resp.StatusCode, "unparsable results page", err)
	}

	mosaicID := markup.OptionalAttr(doc.Find("div#mosaic-provider-jobcards"), "data-mosaic-id")
	if mosaicID == nil {
		c.log.Warn("job cards provider id not found, falling back to markup parsing")
		return &markupPage{doc: doc}, nil
	}
	return &graphQLSearch{client: c, mosaicID: *mosaicID}, nil
}

// Execute runs one batch: the results page, then GraphQL when the page allows it
func (c *Client) Execute(ctx context.Context, req search.Request) (search.RawResult, error) {
	strategy, err := c.selectStrategy(ctx, req)
	if err != nil {
		return search.RawResult{}, err
	}
	return strategy.Execute(ctx, req)
}

// Query fetches and normalizes a single batch
func (c *Client) Query(ctx context.Context, req search.Request) (search.Page[models.Job], error) {
	raw, err := c.Execute(ctx, req)
	if err != nil {
		return search.Page[models.Job]{}, err
	}
	return c.normalizer.Normalize(raw)
}
