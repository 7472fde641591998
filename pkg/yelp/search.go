package yelp

import (
	"context"

	"apiscraper/pkg/models"
	"apiscraper/pkg/pagination"
	"apiscraper/pkg/search"
)

// Search returns a lazy iterator over up to max businesses for term in
// location. The sequence ends once the yielded count reaches the reported
// total or a batch comes back empty.
func (c *Client) Search(term, location string, max int) *pagination.Iterator[models.Business] {
	fetch := func(ctx context.Context, state pagination.State, size int) (pagination.Batch[models.Business], error) {
		page, err := c.Query(ctx, search.Request{
			Query:    term,
			Location: location,
			Offset:   state.Offset,
			Page:     state.Page,
			Limit:    size,
		})
		if err != nil {
			return pagination.Batch[models.Business]{}, err
		}

		more := page.Total != search.UnknownTotal && state.Yielded+len(page.Records) < page.Total
		return pagination.Batch[models.Business]{
			Records: page.Records,
			More:    more,
		}, nil
	}

	return pagination.New(fetch, pagination.Options{
		Site:      site,
		PageSize:  c.cfg.PageSize,
		Max:       max,
		PageDelay: c.cfg.Pacing.Page,
		Pacer:     c.pacer,
		Logger:    c.log,
	})
}
