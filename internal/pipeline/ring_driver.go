package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
)

// RingDriver feeds a Pipeline from a fixed-capacity ring buffer on a
// single supervised consumer goroutine, the same tomb.Tomb-supervised
// idiom used elsewhere for the TCP accept loop and worker pool
// (internal/net/server.go), generalized from a task channel to a ring
// buffer.
//
// The ring itself is single-producer/single-consumer: concurrent Submit
// calls racing on push would corrupt it. multiProducer opts a driver into
// a producer-side mutex that serializes Submit, trading a little
// contention for correctness when more than one goroutine feeds the same
// driver.
type RingDriver struct {
	pipeline *Pipeline
	ring     *ring
	strategy WaitStrategy
	log      zerolog.Logger

	multiProducer bool
	producerMu    sync.Mutex

	mu   sync.Mutex
	cond *sync.Cond

	t *tomb.Tomb
}

// NewRingDriver constructs a driver with the given ring capacity (a power
// of two) and idle strategy. multiProducer must be true whenever Submit
// may be called from more than one goroutine concurrently.
func NewRingDriver(p *Pipeline, capacity int, strategy WaitStrategy, log zerolog.Logger, multiProducer bool) *RingDriver {
	d := &RingDriver{
		pipeline:      p,
		ring:          newRing(capacity),
		strategy:      strategy,
		log:           log.With().Str("component", "pipeline.ring").Logger(),
		multiProducer: multiProducer,
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Start launches the supervised consumer goroutine and returns its Tomb,
// so callers can Kill/Wait on shutdown.
func (d *RingDriver) Start(ctx context.Context) *tomb.Tomb {
	t, ctx := tomb.WithContext(ctx)
	d.t = t
	t.Go(func() error {
		return d.consumeLoop(t)
	})
	// A consumer parked in BlockingWait only re-checks t.Dying() after
	// being woken; broadcast on the way down so Kill doesn't hang forever.
	t.Go(func() error {
		<-t.Dying()
		d.mu.Lock()
		d.cond.Broadcast()
		d.mu.Unlock()
		return nil
	})
	return t
}

// Submit enqueues cmd for the consumer goroutine and wakes it if parked.
// It spins briefly if the ring is momentarily full. If the driver was
// constructed with multiProducer, concurrent Submit calls are serialized
// behind producerMu before touching the ring; otherwise callers must
// submit from a single producer goroutine per the SPSC contract.
func (d *RingDriver) Submit(cmd *common.Command) {
	if d.multiProducer {
		d.producerMu.Lock()
		defer d.producerMu.Unlock()
	}
	for !d.ring.push(cmd) {
		runtime.Gosched()
	}
	d.mu.Lock()
	d.cond.Broadcast()
	d.mu.Unlock()
}

func (d *RingDriver) consumeLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		cmd, ok := d.ring.pop()
		if !ok {
			d.strategy.idle(d)
			continue
		}
		d.pipeline.Handle(cmd)
	}
}
