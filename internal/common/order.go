package common

import "fmt"

// Order is a resting or stop order as tracked by the book. Size/Filled are
// denominated in the symbol's base-unit size; the invariant 0 <= Filled <=
// Size holds for the lifetime of the order.
type Order struct {
	OrderId      OrderId
	Uid          UserId
	Price        Price
	Size         Size
	Filled       Size
	Action       OrderAction
	OrderType    OrderType
	ReservePrice Price

	Timestamp Timestamp

	// Optional attributes, present only for the order types that use them.
	StopPrice   *Price
	VisibleSize *Size
	ExpireTime  *Timestamp
}

// Remaining is the unfilled quantity still working.
func (o *Order) Remaining() Size {
	return o.Size - o.Filled
}

// IsExpired reports whether the order's GTD expiry has passed as of now.
func (o *Order) IsExpired(now Timestamp) bool {
	return o.ExpireTime != nil && now > *o.ExpireTime
}

// VisibleRemaining is what an iceberg order advertises in L2 depth: the
// lesser of its remaining size and its visible slice, or the full remaining
// amount when it isn't an iceberg.
func (o *Order) VisibleRemaining() Size {
	remaining := o.Remaining()
	if o.VisibleSize == nil {
		return remaining
	}
	if remaining < *o.VisibleSize {
		return remaining
	}
	return *o.VisibleSize
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{id=%d uid=%d price=%d size=%d filled=%d action=%v type=%v reserve=%d ts=%d}",
		o.OrderId, o.Uid, o.Price, o.Size, o.Filled, o.Action, o.OrderType, o.ReservePrice, o.Timestamp,
	)
}
