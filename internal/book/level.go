// Package book implements the per-symbol limit order book: price-time
// priority matching over a rich order-type taxonomy, iceberg reveal, GTD
// expiry, and a stop-order pool with cascading trigger propagation.
//
// The price-level index is a tidwall/btree-backed "naive" representation,
// generalized from two order types to the full taxonomy.
package book

import "matchcore/internal/common"

// PriceLevel is a FIFO bucket of orders resting at one price.
type PriceLevel struct {
	Price  common.Price
	Orders []*common.Order
}

// TotalVolume is the sum of size-minus-filled across the level's orders.
func (l *PriceLevel) TotalVolume() common.Size {
	var total common.Size
	for _, o := range l.Orders {
		total += o.Remaining()
	}
	return total
}

// VisibleVolume sums each order's visible remaining quantity, the figure
// advertised in L2 depth.
func (l *PriceLevel) VisibleVolume() common.Size {
	var total common.Size
	for _, o := range l.Orders {
		total += o.VisibleRemaining()
	}
	return total
}
