package pipeline

import (
	"context"
	"fmt"
)

// fifo uses a first-in-first-out payload dispatch strategy. it's most suited
// for cases where the order of output matters, such as recording archived
// documents in the order their links appear on a page.
type fifo struct {
	proc Processor
}

// NewFIFO returns a StageRunner that processes incoming payloads in a
// first-in first-out fashion.
func NewFIFO(proc Processor) StageRunner {
	return fifo{proc}
}

// Run processes payloads read off the stage input channel one at a time and
// dispatches successfully processed payloads to the next stage by writing
// them to the params.Output() channel.
// Processor errors are wrapped with the stage index and written to the
// params.Error() channel which shuts down the pipeline.
// Run blocks until the provided context is cancelled, the input channel is
// closed or the processor returns an error.
func (r fifo) Run(ctx context.Context, params StageParams) {
	for {
		select {
		case <-ctx.Done():
			return // context timeout or cancelled.
		case payloadIn, ok := <-params.Input():
			if !ok {
				return // input channel closed.
			}

			payloadOut, err := r.proc.Process(ctx, payloadIn)
			if err != nil {
				wrappedErr := fmt.Errorf(
					"pipeline stage %d: %w", params.StageIndex(), err,
				)
				mayEmitError(wrappedErr, params.Error())

				return
			}

			// For cases where the processor did not return a payload for
			// the next stage, we continue to read and process new payloads.
			if payloadOut == nil {
				payloadIn.MarkAsProcessed()

				continue // next iteration cycle.
			}

			select {
			case <-ctx.Done():
				return // context timeout or cancelled.
			case params.Output() <- payloadOut: // next iteration cycle.
			}
		}
	}
}
