package exchange

import (
	"time"

	"matchcore/internal/pipeline"
)

// ProducerType selects the submission path Startup wires up: Single is a
// plain RingDriver, Multi additionally serializes concurrent producers
// behind a mutex before pushing onto the ring. Either way there is still
// exactly one consumer goroutine.
type ProducerType int

const (
	SingleProducer ProducerType = iota
	MultiProducer
)

// WaitStrategyType names one of pipeline's WaitStrategy implementations,
// so Config stays a plain serializable struct instead of holding an
// interface value directly.
type WaitStrategyType int

const (
	BusySpin WaitStrategyType = iota
	Yielding
	Sleeping
	Blocking
)

// Config mirrors original_source's ExchangeConfig: ring buffer sizing,
// shard counts, and the producer/wait-strategy pair Startup uses to build
// the async driver.
type Config struct {
	RingBufferSize    int
	MatchingShards    int
	RiskShards        int
	ProducerType      ProducerType
	WaitStrategy      WaitStrategyType
	SleepingDuration  time.Duration
}

// DefaultConfig returns the single-producer, busy-spin, single-shard
// configuration original_source itself defaults to.
func DefaultConfig() Config {
	return Config{
		RingBufferSize:   64 * 1024,
		MatchingShards:   1,
		RiskShards:       1,
		ProducerType:     SingleProducer,
		WaitStrategy:     BusySpin,
		SleepingDuration: 50 * time.Microsecond,
	}
}

func (c Config) waitStrategy() pipeline.WaitStrategy {
	switch c.WaitStrategy {
	case Yielding:
		return pipeline.YieldingWait{}
	case Sleeping:
		return pipeline.SleepingWait{Duration: c.SleepingDuration}
	case Blocking:
		return pipeline.BlockingWait{}
	default:
		return pipeline.BusySpinWait{}
	}
}
