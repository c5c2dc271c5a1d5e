package book

import "matchcore/internal/common"

// orderFromCommand builds a fresh resting/taker order from an inbound
// PlaceOrder command. Filled always starts at zero.
func orderFromCommand(cmd *common.Command) *common.Order {
	return &common.Order{
		OrderId:      cmd.OrderId,
		Uid:          cmd.Uid,
		Price:        cmd.Price,
		Size:         cmd.Size,
		Action:       cmd.Action,
		OrderType:    cmd.OrderType,
		ReservePrice: cmd.ReservePrice,
		Timestamp:    cmd.Timestamp,
		StopPrice:    cmd.StopPrice,
		VisibleSize:  cmd.VisibleSize,
		ExpireTime:   cmd.ExpireTime,
	}
}

// wouldCross reports whether a resting order at price/action would take
// liquidity immediately, the check a Post-Only order must fail to rest.
func (b *OrderBook) wouldCross(action common.OrderAction, price common.Price) bool {
	if action == common.Bid {
		bestAsk, ok := b.BestAsk()
		return ok && price >= bestAsk
	}
	bestBid, ok := b.BestBid()
	return ok && price <= bestBid
}

// availableLiquidity sums the remaining size of every resting order on the
// opposite side priced acceptably for a taker at price/action, skipping
// lazily-expired makers (they don't count as liquidity).
func (b *OrderBook) availableLiquidity(action common.OrderAction, price common.Price, now common.Timestamp) common.Size {
	var total common.Size
	for _, lvl := range b.oppositeLevels(action).Items() {
		if action == common.Bid && lvl.Price > price {
			break
		}
		if action == common.Ask && lvl.Price < price {
			break
		}
		for _, o := range lvl.Orders {
			if o.IsExpired(now) {
				continue
			}
			total += o.Remaining()
		}
	}
	return total
}

// budgetToFill walks the opposite side best-price-first and returns the
// total cost (in quote terms) of filling size units, and whether enough
// resting liquidity exists to do so at all. Expired makers are skipped.
func (b *OrderBook) budgetToFill(action common.OrderAction, size common.Size, now common.Timestamp) (int64, bool) {
	remaining := size
	var cost int64
	for _, lvl := range b.oppositeLevels(action).Items() {
		for _, o := range lvl.Orders {
			if o.IsExpired(now) {
				continue
			}
			avail := o.Remaining()
			if avail <= 0 {
				continue
			}
			if remaining > avail {
				remaining -= avail
				cost += int64(avail) * int64(lvl.Price)
				continue
			}
			cost += int64(remaining) * int64(lvl.Price)
			return cost, true
		}
	}
	return 0, remaining == 0
}

// budgetSatisfied reports whether cost (the total price of filling a
// FOK-Budget order in full) respects the order's budget, carried in its
// Price field: a bid must pay no more than its budget, an ask must
// receive no less.
func budgetSatisfied(action common.OrderAction, cost int64, budget common.Price) bool {
	if action == common.Bid {
		return cost <= int64(budget)
	}
	return cost >= int64(budget)
}

// match walks the opposite side of the book best-price-first, consuming
// resting orders up to taker's remaining size or its limit price, whichever
// binds first. It appends one Trade event per maker consumed to cmd and
// returns the quantity filled. Lazily-expired makers are dropped silently
// (no event) and the walk continues past them.
//
// FOKBudget takers carry an aggregate budget in Price, not a per-unit
// limit, so the price break below does not apply to them: budgetToFill
// and budgetSatisfied have already confirmed the full size can be filled
// within budget before match is ever called for one, so the walk here
// only needs to stop once taker.Size units are filled.
func (b *OrderBook) match(cmd *common.Command, taker *common.Order) common.Size {
	isBid := taker.Action == common.Bid
	levels := b.oppositeLevels(taker.Action)
	limit := taker.Price
	priceLimited := taker.OrderType != common.FOKBudget

	var filled common.Size
	for filled < taker.Size {
		lvl, ok := levels.MinMut()
		if !ok {
			break
		}
		if priceLimited && isBid && lvl.Price > limit {
			break
		}
		if priceLimited && !isBid && lvl.Price < limit {
			break
		}

		consumed := 0
		for consumed < len(lvl.Orders) && filled < taker.Size {
			maker := lvl.Orders[consumed]
			if maker.IsExpired(cmd.Timestamp) {
				delete(b.orderIndex, maker.OrderId)
				delete(b.orders, maker.OrderId)
				consumed++
				continue
			}

			tradeSize := taker.Size - filled
			if rem := maker.Remaining(); rem < tradeSize {
				tradeSize = rem
			}
			maker.Filled += tradeSize
			filled += tradeSize

			var holdPrice common.Price
			if isBid {
				holdPrice = taker.ReservePrice
			} else {
				holdPrice = maker.ReservePrice
			}
			cmd.MatcherEvents = append(cmd.MatcherEvents,
				common.NewTradeEvent(tradeSize, maker.Price, maker.OrderId, maker.Uid, holdPrice))
			b.lastTradePrice = maker.Price

			if maker.Remaining() == 0 {
				delete(b.orderIndex, maker.OrderId)
				delete(b.orders, maker.OrderId)
				consumed++
				continue
			}
			// Maker only partially filled: the taker must be exhausted.
			break
		}

		if consumed > 0 {
			lvl.Orders = lvl.Orders[consumed:]
		}
		if len(lvl.Orders) == 0 {
			levels.Delete(lvl)
		}
	}

	taker.Filled = filled
	return filled
}
