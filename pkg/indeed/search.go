package indeed

import (
	"context"

	"apiscraper/pkg/models"
	"apiscraper/pkg/pagination"
	"apiscraper/pkg/search"
)

// Search returns a lazy iterator over up to max jobs for query near location.
// Structured batches stop on a missing next-page token; page batches stop
// once a batch comes back short.
func (c *Client) Search(query, location string, max int) *pagination.Iterator[models.Job] {
	fetch := func(ctx context.Context, state pagination.State, size int) (pagination.Batch[models.Job], error) {
		page, err := c.Query(ctx, search.Request{
			Query:    query,
			Location: location,
			Offset:   state.Offset,
			Page:     state.Page,
			Limit:    size,
			Cursor:   state.Cursor,
		})
		if err != nil {
			return pagination.Batch[models.Job]{}, err
		}

		more := len(page.Records) >= size
		if page.HasNext != nil {
			more = *page.HasNext
		}
		return pagination.Batch[models.Job]{
			Records: page.Records,
			Cursor:  page.Cursor,
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
