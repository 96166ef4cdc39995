package pipeline_test

import (
	"context"
	"errors"

	check "gopkg.in/check.v1"

	"github.com/mycok/fincrawl/pipeline"
)

// Initialize and register a pointer instance of the stageRunnerTestSuite to
// be executed by check testing package.
var _ = check.Suite(new(stageRunnerTestSuite))

type stageRunnerTestSuite struct{}

func (s *stageRunnerTestSuite) TestFIFO(c *check.C) {
	stages := make([]pipeline.StageRunner, 10)
	for i := 0; i < len(stages); i++ {
		stages[i] = pipeline.NewFIFO(generatePassThruProcessor())
	}

	src := &sourceStab{data: generateStringPayloads(3)}
	sink := new(sinkStab)
	p := pipeline.New(stages...)

	err := p.Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(src.data, check.DeepEquals, sink.data)
	assertAllPayloadProcessed(c, src.data...)
}

func (s *stageRunnerTestSuite) TestFIFOPayloadDrop(c *check.C) {
	// This processor function discards every payload.
	proc := pipeline.ProcessorFunc(
		func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
			return nil, nil
		})

	src := &sourceStab{data: generateStringPayloads(3)}
	sink := new(sinkStab)
	p := pipeline.New(pipeline.NewFIFO(proc))

	err := p.Execute(context.TODO(), src, sink)
	c.Assert(err, check.IsNil)
	c.Assert(sink.data, check.HasLen, 0)
	assertAllPayloadProcessed(c, src.data...)
}

func (s *stageRunnerTestSuite) TestFIFOProcessorErrHandling(c *check.C) {
	procErr := errors.New("processor error")
	proc := pipeline.ProcessorFunc(
		func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
			return nil, procErr
		})

	src := &sourceStab{data: generateStringPayloads(3)}
	sink := new(sinkStab)
	p := pipeline.New(pipeline.NewFIFO(proc))

	err := p.Execute(context.TODO(), src, sink)
	c.Assert(err, check.ErrorMatches, "(?s).*processor error.*")
}

func generatePassThruProcessor() pipeline.Processor {
	return pipeline.ProcessorFunc(
		func(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
			return p, nil
		})
}
