package risk

import "matchcore/internal/common"

// settle runs R2 over cmd's matcher events: credits/debits taker and maker
// balances for each Trade, and refunds the taker's pre-trade hold for each
// Reject/Reduce. If the command's result code already names a
// risk/matching failure, settlement still runs (matching never produced
// events for a rejected command) but the result code is left alone.
func (e *Engine) settle(cmd *common.Command) {
	spec, ok := e.symbolSpec(cmd.Symbol)
	if !ok {
		return
	}

	for _, ev := range cmd.MatcherEvents {
		switch ev.Kind {
		case common.EventTrade:
			e.settleTrade(cmd, ev, spec)
		case common.EventReject, common.EventReduce:
			e.settleRefund(cmd, ev, spec)
		}
	}

	if cmd.ResultCode.IsSuccess() {
		cmd.ResultCode = common.Success
	}
}

// settleTrade distributes one Trade event's proceeds between the command's
// taker and the maker it consumed. The taker side was already debited in
// full at placement (R1's hold); only the overage and the opposite
// currency leg move here.
func (e *Engine) settleTrade(cmd *common.Command, ev common.MatcherEvent, spec common.SymbolSpec) {
	size := int64(ev.Size)
	price := int64(ev.Price)
	quoteGross := size * price * spec.QuoteScaleK
	baseAmount := size * spec.BaseScaleK

	taker, takerOk := e.userProfile(cmd.Uid)
	maker, makerOk := e.userProfile(ev.MatchedOrderUid)

	if cmd.Action == common.Ask {
		// Taker sells base for quote; maker (the bid side) receives the
		// base delivery and its escrow overage back.
		if takerOk {
			taker.Credit(spec.QuoteCurrency, quoteGross-size*spec.TakerFee)
		}
		if makerOk {
			overage := size * int64(ev.BidderHoldPrice-ev.Price) * spec.QuoteScaleK
			maker.Credit(spec.QuoteCurrency, overage)
			maker.Credit(spec.BaseCurrency, baseAmount)
		}
		return
	}

	// Taker buys base with quote; the taker is the bid side here.
	if takerOk {
		overage := size * int64(ev.BidderHoldPrice-ev.Price) * spec.QuoteScaleK
		taker.Credit(spec.QuoteCurrency, overage)
		taker.Credit(spec.BaseCurrency, baseAmount)
	}
	if makerOk {
		maker.Credit(spec.QuoteCurrency, quoteGross-size*spec.MakerFee)
	}
}

// settleRefund returns the command's own taker the pre-trade hold it paid
// for a quantity that was never filled: the reserve-price-sized quote hold
// plus its fee component for a Bid, or the base hold for an Ask.
func (e *Engine) settleRefund(cmd *common.Command, ev common.MatcherEvent, spec common.SymbolSpec) {
	taker, ok := e.userProfile(cmd.Uid)
	if !ok {
		return
	}
	size := int64(ev.Size)
	if cmd.Action == common.Bid {
		refund := size*int64(holdPriceForBid(cmd))*spec.QuoteScaleK + size*spec.TakerFee
		taker.Credit(spec.QuoteCurrency, refund)
		return
	}
	refund := size * spec.BaseScaleK
	taker.Credit(spec.BaseCurrency, refund)
}
