package common

// OrderCommandType is the kind of a Command, dispatched by the pipeline
// stages.
type OrderCommandType int

const (
	PlaceOrder OrderCommandType = iota
	MoveOrder
	CancelOrder
	ReduceOrder
	OrderBookRequest
	AddUser
	BalanceAdjustment
	SuspendUser
	ResumeUser
	BinaryDataCommand
	BinaryDataQuery
	Reset
	Nop
	PersistStateMatching
	PersistStateRisk
	GroupingControl
	ShutdownSignal
)

func (c OrderCommandType) String() string {
	names := [...]string{
		"PlaceOrder", "MoveOrder", "CancelOrder", "ReduceOrder", "OrderBookRequest",
		"AddUser", "BalanceAdjustment", "SuspendUser", "ResumeUser", "BinaryDataCommand",
		"BinaryDataQuery", "Reset", "Nop", "PersistStateMatching", "PersistStateRisk",
		"GroupingControl", "ShutdownSignal",
	}
	if int(c) < 0 || int(c) >= len(names) {
		return "Unknown"
	}
	return names[c]
}

// CommandResultCode is the outcome of processing a Command, written by the
// pipeline stages as the command flows through R1 -> Match -> R2.
type CommandResultCode int

const (
	New CommandResultCode = iota
	ValidForMatchingEngine
	Success
	Accepted

	AuthInvalidUser

	RiskNsf
	RiskInvalidReserveBidPrice
	RiskAskPriceLowerThanFee
	RiskMarginTradingDisabled

	MatchingInvalidOrderBookId
	MatchingUnknownOrderId
	MatchingUnsupportedCommand
	MatchingMoveFailedPriceOverRiskLimit
	MatchingReduceFailedWrongSize
	MatchingInvalidOrderSize

	StatePersistRiskEngineFailed
	StatePersistMatchingEngineFailed

	UserMgmtUserAlreadyExists

	InvalidSymbol
	UnsupportedSymbolType
	BinaryCommandFailed
)

func (c CommandResultCode) String() string {
	names := [...]string{
		"New", "ValidForMatchingEngine", "Success", "Accepted",
		"AuthInvalidUser",
		"RiskNsf", "RiskInvalidReserveBidPrice", "RiskAskPriceLowerThanFee", "RiskMarginTradingDisabled",
		"MatchingInvalidOrderBookId", "MatchingUnknownOrderId", "MatchingUnsupportedCommand",
		"MatchingMoveFailedPriceOverRiskLimit", "MatchingReduceFailedWrongSize", "MatchingInvalidOrderSize",
		"StatePersistRiskEngineFailed", "StatePersistMatchingEngineFailed",
		"UserMgmtUserAlreadyExists",
		"InvalidSymbol", "UnsupportedSymbolType", "BinaryCommandFailed",
	}
	if int(c) < 0 || int(c) >= len(names) {
		return "Unknown"
	}
	return names[c]
}

// IsSuccess reports whether the code belongs to the success family.
func (c CommandResultCode) IsSuccess() bool {
	return c == New || c == ValidForMatchingEngine || c == Success || c == Accepted
}

// Command is the mutable envelope carrying one unit of work through the
// pipeline: constructed at ingress, journaled, routed through R1/Match/R2,
// handed to the consumer, then discarded.
type Command struct {
	Command    OrderCommandType
	ResultCode CommandResultCode

	Uid          UserId
	OrderId      OrderId
	Symbol       SymbolId
	Price        Price
	ReservePrice Price
	Size         Size
	Action       OrderAction
	OrderType    OrderType

	Timestamp    Timestamp
	EventsGroup  uint64
	ServiceFlags int32

	StopPrice   *Price
	VisibleSize *Size
	ExpireTime  *Timestamp

	MatcherEvents []MatcherEvent

	// CascadedCommands holds the synthetic PlaceOrder commands a triggered
	// stop order re-enters as (book.OrderBook.triggerStops). Each carries
	// its own Uid/Action and must be settled and reported independently of
	// the command that moved the trade price and triggered it — it is
	// never folded into MatcherEvents, since its proceeds belong to a
	// different user.
	CascadedCommands []*Command
}

// NewCommand returns a zero-value Command with a small pre-allocated event
// slice, matching the original source's Vec::with_capacity(4) convention.
func NewCommand() Command {
	return Command{
		Command:       Nop,
		ResultCode:    New,
		MatcherEvents: make([]MatcherEvent, 0, 4),
	}
}
