// Package exchange composes the risk engine, matching router, and
// pipeline into the single facade an ingress adapter drives: New,
// AddSymbol, SetResultConsumer, EnableJournaling, ReplayJournal,
// EnableSnapshotting, TakeSnapshot, LoadLatestSnapshot, Startup,
// SubmitCommand. Grounded one-to-one on original_source's ExchangeCore
// (src/core/exchange.rs), wired up the same way cmd/server/server.go
// composes an engine with a net.Server.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
	"matchcore/internal/journal"
	"matchcore/internal/matching"
	"matchcore/internal/pipeline"
	"matchcore/internal/risk"
	"matchcore/internal/snapshot"
)

// ErrAlreadyStarted is returned by snapshot operations once Startup has
// switched the core onto the async ring driver: snapshotting a live core
// racing an async consumer would capture a torn, non-quiescent state.
var ErrAlreadyStarted = errors.New("exchange: snapshot operations are rejected once the core has started")

// driver is the subset of pipeline.InlineDriver / pipeline.RingDriver that
// Core depends on.
type driver interface {
	Submit(cmd *common.Command)
}

// Core is the exchange facade: one risk engine, one matching router, one
// pipeline, optionally backed by a journal and a snapshot store.
type Core struct {
	config Config
	log    zerolog.Logger

	risk   *risk.Engine
	router *matching.Router
	pipe   *pipeline.Pipeline

	mu      sync.Mutex
	driver  driver
	ringTb  *tomb.Tomb
	started bool

	journalWriter *journal.Writer
	snapshots     *snapshot.Store
}

// New constructs a Core from config, wiring a fresh risk engine and
// matching router behind an InlineDriver until Startup is called.
func New(config Config, log zerolog.Logger) *Core {
	log = log.With().Str("component", "exchange").Logger()
	riskEngine := risk.New(config.RiskShards, log)
	router := matching.New(config.MatchingShards, log)
	pipe := pipeline.New(riskEngine, router, nil)

	c := &Core{
		config: config,
		log:    log,
		risk:   riskEngine,
		router: router,
		pipe:   pipe,
	}
	c.driver = pipeline.NewInlineDriver(pipe)
	return c
}

// AddSymbol registers spec with both the risk engine (for hold/settlement
// math) and the matching router (for its order book).
func (c *Core) AddSymbol(spec common.SymbolSpec) {
	c.risk.AddSymbol(spec)
	c.router.AddSymbol(spec)
}

// SetResultConsumer installs the callback invoked once a command has
// cleared R2, replacing any previous consumer.
func (c *Core) SetResultConsumer(consumer pipeline.Consumer) {
	c.pipe.SetConsumer(consumer)
}

// EnableJournaling opens (or creates) the write-ahead log at path; every
// subsequent SubmitCommand appends to it before dispatch.
func (c *Core) EnableJournaling(path string) error {
	w, err := journal.Create(path)
	if err != nil {
		return fmt.Errorf("exchange: enable journaling: %w", err)
	}
	c.mu.Lock()
	c.journalWriter = w
	c.mu.Unlock()
	return nil
}

// ReplayJournal feeds every command in path back through the pipeline,
// synchronously, via an InlineDriver regardless of whether Startup has
// run — replay must never race a live async consumer.
func (c *Core) ReplayJournal(path string) error {
	replay := pipeline.NewInlineDriver(c.pipe)
	err := journal.Replay(path, func(cmd *common.Command) {
		replay.Submit(cmd)
	})
	if err != nil {
		return fmt.Errorf("exchange: replay journal: %w", err)
	}
	return nil
}

// EnableSnapshotting points the core at a snapshot directory. Rejected
// once Startup has run.
func (c *Core) EnableSnapshotting(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	store, err := snapshot.NewStore(dir)
	if err != nil {
		return fmt.Errorf("exchange: enable snapshotting: %w", err)
	}
	c.snapshots = store
	return nil
}

// TakeSnapshot captures the entire current state (every user ledger,
// every book's resting and stop orders) and writes it as snapshot_<seqId>.bin.
// Valid only while the pipeline is quiescent: before Startup, or between
// batches of an inline-driven replay — never once the async ring consumer
// is running.
func (c *Core) TakeSnapshot(seqId uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if c.snapshots == nil {
		return errors.New("exchange: snapshotting not enabled")
	}

	state := &snapshot.State{Users: c.risk.Users()}
	for _, symbolId := range c.router.Symbols() {
		book, ok := c.router.Book(symbolId)
		if !ok {
			continue
		}
		state.Books = append(state.Books, snapshot.BookState{
			Spec:           book.Spec(),
			LastTradePrice: book.LastTradePrice(),
			RestingOrders:  book.RestingOrders(),
			StopOrders:     book.StopOrders(),
		})
	}

	if err := c.snapshots.Save(state, seqId); err != nil {
		return fmt.Errorf("exchange: take snapshot: %w", err)
	}
	return nil
}

// LoadLatestSnapshot loads the greatest-seq_id snapshot in the configured
// directory and installs it as the core's current state, overwriting each
// user ledger and order book the snapshot contains; users and symbols
// absent from the snapshot are left as they are. Returns false if no
// snapshot exists yet.
func (c *Core) LoadLatestSnapshot() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return false, ErrAlreadyStarted
	}
	if c.snapshots == nil {
		return false, errors.New("exchange: snapshotting not enabled")
	}

	state, err := c.snapshots.LoadLatest()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return false, nil
		}
		return false, fmt.Errorf("exchange: load latest snapshot: %w", err)
	}

	for _, u := range state.Users {
		c.risk.RestoreUser(u)
	}
	for _, bs := range state.Books {
		c.AddSymbol(bs.Spec)
		book, ok := c.router.Book(bs.Spec.SymbolId)
		if !ok {
			continue
		}
		for _, o := range bs.RestingOrders {
			book.RestoreOrder(o)
		}
		for _, o := range bs.StopOrders {
			book.RestoreStopOrder(o)
		}
		book.RestoreLastTradePrice(bs.LastTradePrice)
	}
	return true, nil
}

// Startup switches the core onto its async ring-buffer driver, supervised
// by a tomb.Tomb the same way the TCP accept loop is supervised.
// Snapshot operations are rejected from this point on.
func (c *Core) Startup(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	ring := pipeline.NewRingDriver(c.pipe, c.config.RingBufferSize, c.config.waitStrategy(), c.log, c.config.ProducerType == MultiProducer)
	c.ringTb = ring.Start(ctx)
	c.driver = ring
	c.started = true
}

// Shutdown kills the async driver (a no-op before Startup) and waits for
// the consumer goroutine to exit.
func (c *Core) Shutdown() error {
	c.mu.Lock()
	tb := c.ringTb
	c.mu.Unlock()
	if tb == nil {
		return nil
	}
	tb.Kill(nil)
	return tb.Wait()
}

// Close flushes and closes the journal file, if journaling is enabled.
func (c *Core) Close() error {
	c.mu.Lock()
	w := c.journalWriter
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// SubmitCommand journals cmd (if journaling is enabled) then dispatches it
// through the current driver — inline before Startup, async after.
func (c *Core) SubmitCommand(cmd *common.Command) {
	c.mu.Lock()
	w := c.journalWriter
	d := c.driver
	c.mu.Unlock()

	if w != nil {
		if err := w.Append(cmd); err != nil {
			c.log.Error().Err(err).Msg("journal append failed")
		}
	}
	d.Submit(cmd)
}
