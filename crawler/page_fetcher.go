package crawler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure pageFetcher implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*pageFetcher)(nil)

// pageFetcher attempts to retrieve the contents of each product page by
// performing an HTTP GET request. The successfully retrieved page contents
// are stored within the payload's [RawContent] field and made available to
// the following stage(s) of the pipeline.
type pageFetcher struct {
	getter    URLGetter
	userAgent string
	logger    *logrus.Entry
}

func newPageFetcher(
	getter URLGetter, userAgent string, logger *logrus.Entry,
) *pageFetcher {

	return &pageFetcher{
		getter:    getter,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Process retrieves and decodes the payload's product page into the
// payload's [RawContent] field. Fetch failures are logged and cause the
// payload to be dropped so that one unreachable product page does not abort
// the crawl of the remaining products.
func (p *pageFetcher) Process(
	ctx context.Context, payload pipeline.Payload,
) (pipeline.Payload, error) {

	cPayload, ok := payload.(*productPayload)
	if !ok {
		return nil, nil
	}

	err := fetchHTML(ctx, p.getter, p.userAgent, cPayload.URL, &cPayload.RawContent)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"url": cPayload.URL,
			"err": err,
		}).Warn("failed to fetch product page")

		// Return a nil payload to indicate to the caller that the payload
		// has been discarded / dropped.
		return nil, nil
	}

	return cPayload, nil
}
