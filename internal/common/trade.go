package common

import "fmt"

// MatcherEventType is the kind of a MatcherEvent appended to a command's
// event list during matching.
type MatcherEventType int

const (
	EventTrade MatcherEventType = iota
	EventReject
	EventReduce
)

func (t MatcherEventType) String() string {
	switch t {
	case EventTrade:
		return "Trade"
	case EventReject:
		return "Reject"
	case EventReduce:
		return "Reduce"
	default:
		return "Unknown"
	}
}

// MatcherEvent is one outcome of matching, in the order it occurred.
// A Trade event names the maker that was consumed;
// BidderHoldPrice is the bidder's reserve price propagated through to R2
// so the settlement step can compute escrow overage without re-reading the
// (possibly now-deleted) maker order.
type MatcherEvent struct {
	Kind             MatcherEventType
	Size             Size
	Price            Price
	MatchedOrderId   OrderId
	MatchedOrderUid  UserId
	BidderHoldPrice  Price
}

func NewTradeEvent(size Size, price Price, matchedOrderId OrderId, matchedOrderUid UserId, bidderHoldPrice Price) MatcherEvent {
	return MatcherEvent{
		Kind:            EventTrade,
		Size:            size,
		Price:           price,
		MatchedOrderId:  matchedOrderId,
		MatchedOrderUid: matchedOrderUid,
		BidderHoldPrice: bidderHoldPrice,
	}
}

func NewRejectEvent(size Size, price Price) MatcherEvent {
	return MatcherEvent{Kind: EventReject, Size: size, Price: price}
}

func NewReduceEvent(size Size, price Price) MatcherEvent {
	return MatcherEvent{Kind: EventReduce, Size: size, Price: price}
}

func (e MatcherEvent) String() string {
	return fmt.Sprintf("%v{size=%d price=%d matched=%d/%d holdPrice=%d}",
		e.Kind, e.Size, e.Price, e.MatchedOrderId, e.MatchedOrderUid, e.BidderHoldPrice)
}
