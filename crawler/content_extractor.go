package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure contentExtractor implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*contentExtractor)(nil)

// contentExtractor parses each retrieved product page and extracts the page
// title together with the links to the PDF documents embedded in it.
type contentExtractor struct {
	policyPool sync.Pool
}

func newContentExtractor() *contentExtractor {
	return &contentExtractor{
		policyPool: sync.Pool{
			New: func() interface{} {
				return bluemonday.StrictPolicy()
			},
		},
	}
}

// Process parses the payload's raw content, extracts and assigns the page
// title then collects the absolute URLs of the PDF documents linked from
// the page and assigns them to the payload's [PDFLinks] field.
func (p *contentExtractor) Process(
	ctx context.Context, payload pipeline.Payload,
) (pipeline.Payload, error) {

	cPayload, ok := payload.(*productPayload)
	if !ok {
		return nil, nil
	}

	relativeTo, err := url.Parse(cPayload.URL)
	if err != nil {
		return nil, fmt.Errorf("parse product page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&cPayload.RawContent)
	if err != nil {
		return nil, fmt.Errorf("parse product page content: %w", err)
	}

	policy := p.policyPool.Get().(*bluemonday.Policy)

	cPayload.Title = extractPageTitle(doc, policy)
	cPayload.PDFLinks = append(cPayload.PDFLinks, extractPDFLinks(doc, relativeTo)...)

	p.policyPool.Put(policy)

	return cPayload, nil
}
