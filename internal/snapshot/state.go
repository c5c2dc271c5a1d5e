// Package snapshot implements point-in-time persistence of the entire
// exchange state: every registered symbol, every user's balances, and
// every order book's resting and stop orders. Encoding follows the same
// hand-rolled little-endian encoding/binary style as internal/journal; the
// serialized payload is additionally wrapped in klauspost/compress/zstd
// before being written to disk.
package snapshot

import "matchcore/internal/common"

// BookState is one order book's full resting state.
type BookState struct {
	Spec           common.SymbolSpec
	LastTradePrice common.Price
	RestingOrders  []*common.Order
	StopOrders     []*common.Order
}

// State is the entire exchange's state at a point in time: every user's
// ledger and every symbol's order book, quiescent when captured.
type State struct {
	SeqId uint64
	Users []*common.UserProfile
	Books []BookState
}
