// Package pipeline drives a Command through R1 (risk reservation) ->
// Matching -> R2 (settlement) -> consumer callback, in strict arrival
// order. The stage order itself is fixed; InlineDriver and RingDriver
// (ring_driver.go) offer two ways to feed it commands.
package pipeline

import "matchcore/internal/common"

// RiskStage is the subset of risk.Engine the pipeline depends on.
type RiskStage interface {
	PreProcess(cmd *common.Command)
	PostProcess(cmd *common.Command)
}

// MatchingStage is the subset of matching.Router the pipeline depends on.
type MatchingStage interface {
	Dispatch(cmd *common.Command)
}

// Consumer receives each command after R2 has settled it.
type Consumer func(cmd *common.Command)

// Pipeline wires the three stages together behind a single entry point.
type Pipeline struct {
	risk     RiskStage
	matching MatchingStage
	consumer Consumer
}

// New constructs a Pipeline. consumer may be nil if no result callback is
// needed (e.g. pure journal replay).
func New(risk RiskStage, matching MatchingStage, consumer Consumer) *Pipeline {
	return &Pipeline{risk: risk, matching: matching, consumer: consumer}
}

// SetConsumer replaces the result consumer.
func (p *Pipeline) SetConsumer(consumer Consumer) {
	p.consumer = consumer
}

// Handle runs the full R1 -> Match -> R2 -> consumer sequence for one
// command. It never reorders or parallelizes the stages: this is the
// determinism contract the whole pipeline depends on.
//
// Matching cmd may trigger other users' resting stop orders, each
// re-entered as its own synthetic command and carried back on
// cmd.CascadedCommands (skipping R1: a stop's hold was already reserved
// when it was placed). Every cascaded command settles through R2 and
// reaches the consumer on its own, in the order it was generated, before
// Handle returns — including any stops that its own trades go on to
// trigger in turn.
func (p *Pipeline) Handle(cmd *common.Command) {
	p.risk.PreProcess(cmd)
	p.matching.Dispatch(cmd)
	p.settle(cmd)
}

func (p *Pipeline) settle(cmd *common.Command) {
	p.risk.PostProcess(cmd)
	if p.consumer != nil {
		p.consumer(cmd)
	}
	for _, cascaded := range cmd.CascadedCommands {
		p.settle(cascaded)
	}
}
