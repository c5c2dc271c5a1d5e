// Package matching routes commands to the order book for their symbol.
// It shards by SymbolId the way internal/risk shards by UserId, generalized
// from a single fixed books map to a sharded one, plus
// original_source's core/processors/matching_engine.rs for the
// dispatch/result-code-translation shape.
package matching

import (
	"github.com/rs/zerolog"

	"matchcore/internal/book"
	"matchcore/internal/common"
)

type shard struct {
	books map[common.SymbolId]*book.OrderBook
}

func newShard() *shard {
	return &shard{books: make(map[common.SymbolId]*book.OrderBook)}
}

// Router dispatches commands to the order book owning their symbol.
type Router struct {
	mask   uint64
	shards []*shard
	log    zerolog.Logger
}

// New constructs a Router with the given number of shards (a power of two).
func New(shardCount int, log zerolog.Logger) *Router {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = newShard()
	}
	return &Router{
		mask:   uint64(shardCount - 1),
		shards: shards,
		log:    log.With().Str("component", "matching").Logger(),
	}
}

func (r *Router) shardFor(symbol common.SymbolId) *shard {
	return r.shards[uint64(symbol)&r.mask]
}

// AddSymbol creates an empty order book for spec.SymbolId in its owning
// shard.
func (r *Router) AddSymbol(spec common.SymbolSpec) {
	r.shardFor(spec.SymbolId).books[spec.SymbolId] = book.New(spec, r.log)
}

func (r *Router) bookFor(symbol common.SymbolId) (*book.OrderBook, bool) {
	b, ok := r.shardFor(symbol).books[symbol]
	return b, ok
}

// Book exposes the order book for a symbol for read-only queries
// (market-data requests, snapshot iteration).
func (r *Router) Book(symbol common.SymbolId) (*book.OrderBook, bool) {
	return r.bookFor(symbol)
}

// Dispatch runs the matching stage for one command: PlaceOrder only
// proceeds if R1 already set ValidForMatchingEngine; Cancel/Move/Reduce
// always attempt; OrderBookRequest only checks that the book exists;
// anything else is left untouched.
func (r *Router) Dispatch(cmd *common.Command) {
	switch cmd.Command {
	case common.PlaceOrder:
		if cmd.ResultCode != common.ValidForMatchingEngine {
			return
		}
		b, ok := r.bookFor(cmd.Symbol)
		if !ok {
			cmd.ResultCode = common.MatchingInvalidOrderBookId
			return
		}
		cmd.ResultCode = b.Place(cmd)

	case common.CancelOrder:
		b, ok := r.bookFor(cmd.Symbol)
		if !ok {
			cmd.ResultCode = common.MatchingInvalidOrderBookId
			return
		}
		cmd.ResultCode = b.Cancel(cmd)

	case common.MoveOrder:
		b, ok := r.bookFor(cmd.Symbol)
		if !ok {
			cmd.ResultCode = common.MatchingInvalidOrderBookId
			return
		}
		cmd.ResultCode = b.Move(cmd)

	case common.ReduceOrder:
		b, ok := r.bookFor(cmd.Symbol)
		if !ok {
			cmd.ResultCode = common.MatchingInvalidOrderBookId
			return
		}
		cmd.ResultCode = b.Reduce(cmd)

	case common.OrderBookRequest:
		if _, ok := r.bookFor(cmd.Symbol); !ok {
			cmd.ResultCode = common.MatchingInvalidOrderBookId
			return
		}
		cmd.ResultCode = common.Success
	}
}

// L2 returns the top-depth market data for symbol, if its book exists.
func (r *Router) L2(symbol common.SymbolId, depth int) (common.L2MarketData, bool) {
	b, ok := r.bookFor(symbol)
	if !ok {
		return common.L2MarketData{}, false
	}
	return b.L2(depth), true
}

// Symbols returns every registered symbol id, across all shards, for
// iteration during snapshotting.
func (r *Router) Symbols() []common.SymbolId {
	var ids []common.SymbolId
	for _, s := range r.shards {
		for id := range s.books {
			ids = append(ids, id)
		}
	}
	return ids
}
