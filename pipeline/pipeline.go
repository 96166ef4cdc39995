/*
	pipeline package provides an implementation of an asynchronous
	multi-stage pipeline abstraction exposed through a synchronous API.
	The crawler component uses it to push discovered product pages through
	its fetch, extract and archive stages.

		Requirements:
			- The client / user should provide an input source that satisfies
			  the [pipeline.Source] interface.
			- The client / user should provide an output sink that satisfies
			  the [pipeline.Sink] interface.
			- The client / user may use the available package stage runner
			  concrete implementations or define stage runner types that
			  satisfy the [pipeline.StageRunner] interface.
*/

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Pipeline provides modular, multi-stage pipeline functionality. Each
// pipeline is built out of an input source, an output sink and zero or more
// processing stages / stage runners.
type Pipeline struct {
	stages []StageRunner
}

// New returns a pointer to a pipeline instance.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{stages}
}

// Execute reads the contents of the specified source, sends them through the
// various stages of the pipeline and directs the results to the specified
// sink and returns back any errors that may have occurred.
//
// Calls to Execute block until:
//   - all data from the source has been processed or discarded.
//   - an error is encountered from any of the pipeline components including
//     stage runners and their user defined processor functions.
//   - the supplied context is cancelled.
//
// It is safe to call Execute concurrently with different sources and sinks.
func (p *Pipeline) Execute(ctx context.Context, src Source, sink Sink) error {
	var wg sync.WaitGroup
	executionCtx, cancel := context.WithCancel(ctx)

	// Allocate channels for wiring together the source, the pipeline stages
	// and the output sink. The output of the i_th stage is used as an input
	// for the i+1_th stage. One extra channel beyond the number of stages is
	// needed to connect the source and sink directly in case no stages are
	// provided (pass through).
	stageChans := make([]chan Payload, len(p.stages)+1)
	for i := 0; i < len(stageChans); i++ {
		stageChans[i] = make(chan Payload)
	}

	// Allocate a buffered channel to accommodate errors from all pipeline
	// components including the source, sink and stages / stage runners.
	errChan := make(chan error, len(p.stages)+2)

	// Launch a worker / goroutine for each pipeline stage / stage runner.
	for i := 0; i < len(p.stages); i++ {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()

			p.stages[index].Run(executionCtx, &stageParams{
				stage:   index,
				inChan:  stageChans[index],
				outChan: stageChans[index+1],
				errChan: errChan,
			})

			// Once the Run method for a particular stage returns, we signal
			// the next stage that no more data is available by closing the
			// output channel. A premature exit from any stage's Run method
			// triggers a chain of exits for all the downstream stages which
			// in turn causes the pipeline to exit.
			close(stageChans[index+1])
		}(i)
	}

	// Start source and sink workers / go-routines.
	wg.Add(2)

	go func() {
		sourceWorker(executionCtx, src, stageChans[0], errChan)

		// Once the source runs out of data or the ctx is cancelled, signal
		// the first stage that no more data is available by closing its
		// input channel.
		close(stageChans[0])
		wg.Done()
	}()

	go func() {
		sinkWorker(executionCtx, sink, stageChans[len(stageChans)-1], errChan)
		wg.Done()
	}()

	// Ensure all workers / goroutines exit, close the error channel and
	// cancel the execution context.
	go func() {
		wg.Wait()

		close(errChan)
		cancel()
	}()

	var err error
	for stageErr := range errChan {
		err = multierror.Append(err, stageErr)

		// Cancel the execution context and trigger the shutdown of the
		// entire pipeline.
		cancel()
	}

	return err
}

// sourceWorker retrieves payload instances from a source object and sends
// them to the channel serving as input for the first stage of the pipeline.
func sourceWorker(
	ctx context.Context, src Source,
	outChan chan<- Payload, errChan chan<- error) {

	for src.Next(ctx) {
		p := src.Payload()

		select {
		case <-ctx.Done():
			return
		case outChan <- p:
		}
	}

	if err := src.Error(); err != nil {
		wrappedErr := fmt.Errorf("pipeline source: %w", err)
		mayEmitError(wrappedErr, errChan)
	}
}

func sinkWorker(
	ctx context.Context, sink Sink,
	inChan <-chan Payload, errChan chan<- error,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-inChan:
			if !ok {
				return // channel closed.
			}

			if err := sink.Consume(ctx, payload); err != nil {
				wrappedErr := fmt.Errorf("pipeline sink: %w", err)
				mayEmitError(wrappedErr, errChan)

				return
			}

			payload.MarkAsProcessed()
		}
	}
}

func mayEmitError(err error, errChan chan<- error) {
	select {
	case errChan <- err: // error is successfully written to the channel.
	default: // errChan is full of old errors and the new error is dropped.
	}
}
