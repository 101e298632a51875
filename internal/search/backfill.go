package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

const (
	backfillImagesPerRecord = 3
	backfillConcurrency     = 4
)

// backfillImages fills ImageURLs of records that have none from the image
// finder, under whatever remains of ctx. Failures leave the record as is.
func (a *Aggregator) backfillImages(ctx context.Context, records []types.CanonicalRecord) {
	var g errgroup.Group
	g.SetLimit(backfillConcurrency)
	found := make([][]string, len(records))

	for i := range records {
		if len(records[i].ImageURLs) > 0 {
			continue
		}
		name, city := records[i].Name, records[i].City
		g.Go(func() error {
			urls, err := a.images.FindImages(ctx, name, city, backfillImagesPerRecord)
			if err != nil {
				a.logger.Debug("image backfill failed", "name", name, "err", err)
				return nil
			}
			found[i] = provider.FilterImages(urls)
			return nil
		})
	}
	_ = g.Wait()

	for i, urls := range found {
		if len(urls) > 0 {
			records[i].ImageURLs = urls
		}
	}
}
