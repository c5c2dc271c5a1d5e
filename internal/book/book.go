package book

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"matchcore/internal/common"
)

var (
	// ErrOrderNotFound names a failed order_id lookup. No function of this
	// package returns it: Cancel, Move and Reduce report a miss as
	// CommandResultCode.MatchingUnknownOrderId directly.
	ErrOrderNotFound = errors.New("book: order not found")
)

// indexEntry is the order-id index's value: enough to locate the order
// without a linear scan.
type indexEntry struct {
	price  common.Price
	action common.OrderAction
}

// OrderBook is the price-time-priority book for one symbol. Bids and asks
// are ordered maps of price -> PriceLevel (ascending for asks, descending
// for bids), backed by a btree.BTreeG[*PriceLevel] on each side.
type OrderBook struct {
	spec common.SymbolSpec
	log  zerolog.Logger

	asks *btree.BTreeG[*PriceLevel]
	bids *btree.BTreeG[*PriceLevel]

	orderIndex map[common.OrderId]indexEntry
	orders     map[common.OrderId]*common.Order

	stopPool map[common.OrderId]*common.Order

	lastTradePrice common.Price
}

// New constructs an empty book for the given symbol.
func New(spec common.SymbolSpec, log zerolog.Logger) *OrderBook {
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price // ascending: best ask (lowest) first
	})
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price // descending: best bid (highest) first
	})
	return &OrderBook{
		spec:       spec,
		log:        log.With().Int32("symbol", int32(spec.SymbolId)).Logger(),
		asks:       asks,
		bids:       bids,
		orderIndex: make(map[common.OrderId]indexEntry),
		orders:     make(map[common.OrderId]*common.Order),
		stopPool:   make(map[common.OrderId]*common.Order),
	}
}

func (b *OrderBook) levelsFor(action common.OrderAction) *btree.BTreeG[*PriceLevel] {
	if action == common.Ask {
		return b.asks
	}
	return b.bids
}

func (b *OrderBook) oppositeLevels(action common.OrderAction) *btree.BTreeG[*PriceLevel] {
	return b.levelsFor(action.Opposite())
}

// restOrder inserts order into its price level, creating the level if
// necessary, and records it in the order-id index.
func (b *OrderBook) restOrder(order *common.Order) {
	levels := b.levelsFor(order.Action)
	if lvl, ok := levels.GetMut(&PriceLevel{Price: order.Price}); ok {
		lvl.Orders = append(lvl.Orders, order)
	} else {
		levels.Set(&PriceLevel{Price: order.Price, Orders: []*common.Order{order}})
	}
	b.orderIndex[order.OrderId] = indexEntry{price: order.Price, action: order.Action}
	b.orders[order.OrderId] = order
}

// removeResting deletes order from its price level and the order-id index.
// It looks up the order's price/action in the index itself.
func (b *OrderBook) removeResting(orderId common.OrderId) (*common.Order, bool) {
	entry, ok := b.orderIndex[orderId]
	if !ok {
		return nil, false
	}
	levels := b.levelsFor(entry.action)
	lvl, ok := levels.GetMut(&PriceLevel{Price: entry.price})
	if !ok {
		return nil, false
	}
	var removed *common.Order
	kept := lvl.Orders[:0]
	for _, o := range lvl.Orders {
		if o.OrderId == orderId {
			removed = o
			continue
		}
		kept = append(kept, o)
	}
	lvl.Orders = kept
	if len(lvl.Orders) == 0 {
		levels.Delete(lvl)
	}
	delete(b.orderIndex, orderId)
	delete(b.orders, orderId)
	return removed, removed != nil
}

// BestAsk returns the lowest resting ask price.
func (b *OrderBook) BestAsk() (common.Price, bool) {
	if lvl, ok := b.asks.Min(); ok {
		return lvl.Price, true
	}
	return 0, false
}

// BestBid returns the highest resting bid price.
func (b *OrderBook) BestBid() (common.Price, bool) {
	if lvl, ok := b.bids.Min(); ok {
		return lvl.Price, true
	}
	return 0, false
}

// TotalAskVolume sums remaining size across all resting asks.
func (b *OrderBook) TotalAskVolume() common.Size {
	var total common.Size
	for _, lvl := range b.asks.Items() {
		total += lvl.TotalVolume()
	}
	return total
}

// TotalBidVolume sums remaining size across all resting bids.
func (b *OrderBook) TotalBidVolume() common.Size {
	var total common.Size
	for _, lvl := range b.bids.Items() {
		total += lvl.TotalVolume()
	}
	return total
}

// AskLevelCount and BidLevelCount expose the number of distinct resting
// price levels per side.
func (b *OrderBook) AskLevelCount() int { return b.asks.Len() }
func (b *OrderBook) BidLevelCount() int { return b.bids.Len() }

// GetOrder looks up a resting order's current price/action by id.
func (b *OrderBook) GetOrder(id common.OrderId) (common.Price, common.OrderAction, bool) {
	entry, ok := b.orderIndex[id]
	return entry.price, entry.action, ok
}

// L2 returns the top-depth price levels per side, reporting visible (not
// total) volume.
func (b *OrderBook) L2(depth int) common.L2MarketData {
	data := common.NewL2MarketData(depth)
	for i, lvl := range b.asks.Items() {
		if i >= depth {
			break
		}
		data.AskPrices = append(data.AskPrices, lvl.Price)
		data.AskVolumes = append(data.AskVolumes, lvl.VisibleVolume())
	}
	for i, lvl := range b.bids.Items() {
		if i >= depth {
			break
		}
		data.BidPrices = append(data.BidPrices, lvl.Price)
		data.BidVolumes = append(data.BidVolumes, lvl.VisibleVolume())
	}
	return data
}

// Spec returns the book's symbol specification.
func (b *OrderBook) Spec() common.SymbolSpec { return b.spec }

// RestingOrders returns every resting order across both sides, in no
// particular order, for snapshot serialization.
func (b *OrderBook) RestingOrders() []*common.Order {
	orders := make([]*common.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, o)
	}
	return orders
}

// StopOrders returns every order currently parked in the stop pool, for
// snapshot serialization.
func (b *OrderBook) StopOrders() []*common.Order {
	orders := make([]*common.Order, 0, len(b.stopPool))
	for _, o := range b.stopPool {
		orders = append(orders, o)
	}
	return orders
}

// LastTradePrice returns the price of the most recent trade this book
// produced, the reference point for stop-trigger scanning.
func (b *OrderBook) LastTradePrice() common.Price { return b.lastTradePrice }

// RestoreOrder re-inserts a previously-resting order directly, bypassing
// matching. Used only by snapshot load, on an otherwise-empty book.
func (b *OrderBook) RestoreOrder(order *common.Order) {
	b.restOrder(order)
}

// RestoreStopOrder re-inserts a previously-pooled stop order directly.
// Used only by snapshot load.
func (b *OrderBook) RestoreStopOrder(order *common.Order) {
	b.stopPool[order.OrderId] = order
}

// RestoreLastTradePrice sets the book's last-trade reference, restoring
// stop-trigger context from a snapshot.
func (b *OrderBook) RestoreLastTradePrice(price common.Price) {
	b.lastTradePrice = price
}
