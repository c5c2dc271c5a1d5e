package pipeline

import "matchcore/internal/common"

// InlineDriver calls Pipeline.Handle synchronously on the caller's
// goroutine. It is the driver used for journal replay and for any test or
// quiescent-snapshot path that must not race a background consumer.
type InlineDriver struct {
	pipeline *Pipeline
}

// NewInlineDriver wraps p for synchronous dispatch.
func NewInlineDriver(p *Pipeline) *InlineDriver {
	return &InlineDriver{pipeline: p}
}

// Submit runs cmd through the pipeline and returns once it's fully settled.
func (d *InlineDriver) Submit(cmd *common.Command) {
	d.pipeline.Handle(cmd)
}
