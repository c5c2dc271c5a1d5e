// Package common holds the data model shared by every core component: the
// scalar types, symbol specification, order/command/event structs, and the
// result-code vocabulary. It has no third-party dependencies.
package common

// Scalar types. All quantities are signed integers — no fractional sizes.
type (
	UserId    int64
	OrderId   int64
	Price     int64
	Size      int64
	Timestamp int64
	SymbolId  int32
	Currency  int32
)

// SymbolType flags the kind of instrument a symbol represents. The
// hold/settlement formula in risk.Engine applies uniformly across every
// type; SymbolType itself carries no special-cased behavior.
type SymbolType int

const (
	SpotPair SymbolType = iota
	Futures
	Perpetual
	CallOption
	PutOption
)

func (t SymbolType) String() string {
	switch t {
	case SpotPair:
		return "SpotPair"
	case Futures:
		return "Futures"
	case Perpetual:
		return "Perpetual"
	case CallOption:
		return "CallOption"
	case PutOption:
		return "PutOption"
	default:
		return "Unknown"
	}
}

// OrderAction is which side of the book an order rests on / takes from.
type OrderAction int

const (
	Ask OrderAction = iota
	Bid
)

func (a OrderAction) Opposite() OrderAction {
	if a == Ask {
		return Bid
	}
	return Ask
}

func (a OrderAction) String() string {
	if a == Bid {
		return "Bid"
	}
	return "Ask"
}

// OrderType is the order-type taxonomy this book understands.
type OrderType int

const (
	GTC OrderType = iota
	IOC
	FOK
	FOKBudget
	PostOnly
	StopLimit
	StopMarket
	Iceberg
	GTD
	Day
)

func (t OrderType) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case FOKBudget:
		return "FOKBudget"
	case PostOnly:
		return "PostOnly"
	case StopLimit:
		return "StopLimit"
	case StopMarket:
		return "StopMarket"
	case Iceberg:
		return "Iceberg"
	case GTD:
		return "GTD"
	case Day:
		return "Day"
	default:
		return "Unknown"
	}
}

// IsStop reports whether the order type enters the stop pool instead of the
// book proper.
func (t OrderType) IsStop() bool {
	return t == StopLimit || t == StopMarket
}

// SymbolSpec is the immutable per-symbol configuration.
type SymbolSpec struct {
	SymbolId      SymbolId
	SymbolType    SymbolType
	BaseCurrency  Currency
	QuoteCurrency Currency
	BaseScaleK    int64
	QuoteScaleK   int64
	TakerFee      int64
	MakerFee      int64
	MarginBuy     int64
	MarginSell    int64
}

// DefaultSymbolSpec returns a spot-pair spec with unit scales and zero fees,
// the minimal useful spec for tests and quick-start wiring.
func DefaultSymbolSpec(id SymbolId, base, quote Currency) SymbolSpec {
	return SymbolSpec{
		SymbolId:      id,
		SymbolType:    SpotPair,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		BaseScaleK:    1,
		QuoteScaleK:   1,
	}
}
