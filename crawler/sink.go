package crawler

import (
	"context"

	"github.com/mycok/fincrawl/pipeline"
)

// Static and compile-time check to ensure countingSink implements
// pipeline.Sink interface.
var _ pipeline.Sink = (*countingSink)(nil)

type countingSink struct {
	count int
}

func (s *countingSink) Consume(ctx context.Context, p pipeline.Payload) error {
	s.count++

	return nil
}

func (s *countingSink) getCount() int {
	return s.count
}
