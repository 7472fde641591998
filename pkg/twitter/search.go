package twitter

import (
	"context"

	"apiscraper/pkg/models"
	"apiscraper/pkg/pagination"
	"apiscraper/pkg/search"
)

// Search returns a lazy iterator over up to max tweets matching query. The
// sequence ends when a page carries no bottom cursor.
func (c *Client) Search(query string, max int) *pagination.Iterator[models.Tweet] {
	fetch := func(ctx context.Context, state pagination.State, size int) (pagination.Batch[models.Tweet], error) {
		page, err := c.Query(ctx, search.Request{
			Query:  query,
			Limit:  size,
			Cursor: state.Cursor,
			Page:   state.Page,
		})
		if err != nil {
			return pagination.Batch[models.Tweet]{}, err
		}
		return pagination.Batch[models.Tweet]{
			Records: page.Records,
			Cursor:  page.Cursor,
			More:    page.Cursor != "",
		}, nil
	}

	return pagination.New(fetch, pagination.Options{
		Site:         site,
		PageSize:     c.cfg.PageSize,
		Max:          max,
		PageDelay:    c.cfg.Pacing.Page,
		Pacer:        c.pacer,
		Logger:       c.log,
		KeepOverflow: true,
	})
}
