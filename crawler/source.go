package crawler

import (
	"context"

	"github.com/google/uuid"

	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure productSource implements
// pipeline.Source interface.
var _ pipeline.Source = (*productSource)(nil)

// productSource emits one payload for each product link discovered on an
// institution's landing page, preserving the order in which the links
// appear on the page.
type productSource struct {
	institutionID   uuid.UUID
	institutionSlug string
	urls            []string
	index           int
}

// Next loads the next available payload from the source and returns true.
// When no more payloads are available, calls to Next return false.
func (s *productSource) Next(ctx context.Context) bool {
	if s.index >= len(s.urls) {
		return false
	}

	s.index++

	return true
}

// Payload returns the current payload to be processed.
func (s *productSource) Payload() pipeline.Payload {
	payload := payloadPool.Get().(*productPayload)

	// Note: we populate the payload with the product link data, all the
	// remaining payload fields are populated by the various pipeline
	// stages during pipeline execution.
	payload.InstitutionID = s.institutionID
	payload.InstitutionSlug = s.institutionSlug
	payload.URL = s.urls[s.index-1]

	return payload
}

// Error returns the last error encountered by the source.
func (s *productSource) Error() error {
	return nil
}
