package crawler

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/juju/clock"

	"github.com/mycok/fincrawl/catalog"
	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure productRecorder implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*productRecorder)(nil)

type productRecorder struct {
	store MiniCatalog
	clk   clock.Clock
}

func newProductRecorder(store MiniCatalog, clk clock.Clock) *productRecorder {
	return &productRecorder{
		store: store,
		clk:   clk,
	}
}

// Process upserts the payload's product into the catalog and refreshes its
// last seen timestamp. The product's assigned ID and currently stored title
// are reported back through the payload for use by the following stages.
func (p *productRecorder) Process(
	ctx context.Context, payload pipeline.Payload,
) (pipeline.Payload, error) {

	cPayload, ok := payload.(*productPayload)
	if !ok {
		return nil, nil
	}

	product := &catalog.Product{
		InstitutionID: cPayload.InstitutionID,
		URL:           cPayload.URL,
		Slug:          slug.Make(cPayload.URL),
		LastSeen:      p.clk.Now().UTC(),
	}

	if err := p.store.UpsertProduct(product); err != nil {
		return nil, err
	}

	cPayload.ProductID = product.ID
	cPayload.StoredTitle = product.Title
	cPayload.LastSeen = product.LastSeen

	return cPayload, nil
}
