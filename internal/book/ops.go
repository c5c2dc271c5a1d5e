package book

import "matchcore/internal/common"

// Place handles a PlaceOrder command: stop orders go into the stop pool,
// everything else is matched and, if unfilled, rests according to its
// order-type semantics.
func (b *OrderBook) Place(cmd *common.Command) common.CommandResultCode {
	if cmd.Size <= 0 {
		return common.MatchingInvalidOrderSize
	}

	if cmd.OrderType.IsStop() {
		order := orderFromCommand(cmd)
		b.stopPool[cmd.OrderId] = order
		return common.Success
	}

	_, duplicate := b.orderIndex[cmd.OrderId]
	order := orderFromCommand(cmd)

	if duplicate {
		// A reused order_id is matched as a one-shot taker and never rests;
		// any unfilled remainder is rejected.
		filled := b.match(cmd, order)
		if remaining := order.Size - filled; remaining > 0 {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(remaining, cmd.Price))
		}
		b.afterMatch(filled > 0, cmd)
		return common.Success
	}

	switch cmd.OrderType {
	case common.PostOnly:
		if b.wouldCross(order.Action, order.Price) {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(order.Size, order.Price))
			return common.Success
		}
		b.restOrder(order)

	case common.FOK:
		if b.availableLiquidity(order.Action, order.Price, cmd.Timestamp) < order.Size {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(order.Size, order.Price))
			return common.Success
		}
		filled := b.match(cmd, order)
		b.afterMatch(filled > 0, cmd)

	case common.FOKBudget:
		cost, ok := b.budgetToFill(order.Action, order.Size, cmd.Timestamp)
		if !ok || !budgetSatisfied(order.Action, cost, cmd.Price) {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(order.Size, order.Price))
			return common.Success
		}
		filled := b.match(cmd, order)
		if remaining := order.Size - filled; remaining > 0 {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(remaining, order.Price))
		}
		b.afterMatch(filled > 0, cmd)

	case common.IOC:
		filled := b.match(cmd, order)
		if remaining := order.Size - filled; remaining > 0 {
			cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(remaining, order.Price))
		}
		b.afterMatch(filled > 0, cmd)

	default: // GTC, Iceberg, GTD, Day
		filled := b.match(cmd, order)
		if filled < order.Size {
			b.restOrder(order)
		}
		b.afterMatch(filled > 0, cmd)
	}

	return common.Success
}

// Cancel removes a resting or stop order outright. The unfilled remainder
// is reported as a Reject event so callers can release escrow uniformly.
func (b *OrderBook) Cancel(cmd *common.Command) common.CommandResultCode {
	if stop, ok := b.stopPool[cmd.OrderId]; ok {
		if stop.Uid != cmd.Uid {
			return common.MatchingUnknownOrderId
		}
		delete(b.stopPool, cmd.OrderId)
		cmd.Action = stop.Action
		cmd.ReservePrice = stop.ReservePrice
		cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(stop.Remaining(), stop.Price))
		return common.Success
	}

	order, ok := b.orders[cmd.OrderId]
	if !ok || order.Uid != cmd.Uid {
		return common.MatchingUnknownOrderId
	}
	remaining := order.Remaining()
	price := order.Price
	action := order.Action
	reservePrice := order.ReservePrice
	b.removeResting(cmd.OrderId)

	cmd.Action = action
	cmd.ReservePrice = reservePrice
	cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(remaining, price))
	return common.Success
}

// Move repriced a resting order: pull it out, attempt to match at the new
// price, and rest whatever remains. A bid move on a spot pair that would
// raise the price above the order's reserve is rejected outright; no
// other symbol type enforces this check.
func (b *OrderBook) Move(cmd *common.Command) common.CommandResultCode {
	order, ok := b.orders[cmd.OrderId]
	if !ok || order.Uid != cmd.Uid {
		return common.MatchingUnknownOrderId
	}

	if b.spec.SymbolType == common.SpotPair && order.Action == common.Bid && cmd.Price > order.ReservePrice {
		return common.MatchingMoveFailedPriceOverRiskLimit
	}

	remainingSize := order.Remaining()
	action := order.Action
	moved := &common.Order{
		OrderId:      cmd.OrderId,
		Uid:          order.Uid,
		Price:        cmd.Price,
		Size:         remainingSize,
		Action:       action,
		OrderType:    order.OrderType,
		ReservePrice: order.ReservePrice,
		Timestamp:    order.Timestamp,
		VisibleSize:  order.VisibleSize,
		ExpireTime:   order.ExpireTime,
	}
	b.removeResting(cmd.OrderId)

	filled := b.match(cmd, moved)
	cmd.Action = action
	if filled < moved.Size {
		b.restOrder(moved)
	}
	b.afterMatch(filled > 0, cmd)
	return common.Success
}

// Reduce shrinks a resting order's size, cancelling it outright if the
// reduction consumes the whole remainder.
func (b *OrderBook) Reduce(cmd *common.Command) common.CommandResultCode {
	if cmd.Size <= 0 {
		return common.MatchingInvalidOrderSize
	}
	order, ok := b.orders[cmd.OrderId]
	if !ok || order.Uid != cmd.Uid {
		return common.MatchingUnknownOrderId
	}

	remaining := order.Remaining()
	reduceBy := cmd.Size
	if reduceBy > remaining {
		reduceBy = remaining
	}
	price := order.Price
	action := order.Action
	reservePrice := order.ReservePrice

	if reduceBy == remaining {
		b.removeResting(cmd.OrderId)
	} else {
		order.Size -= reduceBy
	}

	cmd.Action = action
	cmd.ReservePrice = reservePrice
	cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewReduceEvent(reduceBy, price))
	return common.Success
}

// afterMatch runs the stop-trigger scan whenever a command produced at
// least one trade, since only a trade can move lastTradePrice.
func (b *OrderBook) afterMatch(hadTrade bool, cmd *common.Command) {
	if hadTrade {
		b.triggerStops(cmd)
	}
}
