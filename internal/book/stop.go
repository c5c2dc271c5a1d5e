package book

import (
	"math"

	"matchcore/internal/common"
)

// stopTriggered reports whether a resting stop order's trigger condition
// has been met by the book's most recent trade price: a buy-stop (Bid)
// triggers once the market trades at or above its stop price, a sell-stop
// (Ask) once it trades at or below (grounded on the Vietnamese
// original's process_stop_orders in original_source/src/core/orderbook/advanced.rs).
func stopTriggered(stop *common.Order, lastTradePrice common.Price) bool {
	if stop.StopPrice == nil {
		return false
	}
	if stop.Action == common.Bid {
		return lastTradePrice >= *stop.StopPrice
	}
	return lastTradePrice <= *stop.StopPrice
}

// collectTriggered removes every stop order whose trigger condition now
// holds from the pool and returns them, oldest-placed first is not
// guaranteed since the pool is a map; order among triggered stops within
// one scan is not part of the determinism contract beyond the book's own
// subsequent matching of each.
func (b *OrderBook) collectTriggered() []*common.Order {
	var triggered []*common.Order
	for id, stop := range b.stopPool {
		if stopTriggered(stop, b.lastTradePrice) {
			triggered = append(triggered, stop)
			delete(b.stopPool, id)
		}
	}
	return triggered
}

// sweepPrice is the limit used when a triggered Stop-Market order re-enters
// as an IOC order: the most aggressive price on its side, so it sweeps as
// much resting liquidity as is available before any unfilled remainder is
// rejected.
func sweepPrice(action common.OrderAction) common.Price {
	if action == common.Bid {
		return common.Price(math.MaxInt64)
	}
	return common.Price(math.MinInt64)
}

// triggerStops scans the stop pool once for orders whose trigger condition
// now holds and re-enters each sequentially as a live order: Stop-Limit
// orders re-enter as GTC at their original limit price, Stop-Market orders
// re-enter as IOC at the most aggressive price on their side. Each
// re-entered order is placed through the normal Place path, so if it
// trades it runs its own trigger scan in turn — the cascade terminates
// naturally once a scan finds nothing left to trigger.
//
// Each triggered stop belongs to its own owner, not to the command whose
// trade moved lastTradePrice and triggered the scan, so its resulting
// command is appended to cmd.CascadedCommands rather than folded into
// cmd.MatcherEvents: the pipeline settles and reports each cascaded
// command independently, against its own uid.
func (b *OrderBook) triggerStops(cmd *common.Command) {
	triggered := b.collectTriggered()
	for _, stop := range triggered {
		triggerCmd := &common.Command{
			Command:      common.PlaceOrder,
			Uid:          stop.Uid,
			OrderId:      stop.OrderId,
			Symbol:       cmd.Symbol,
			ReservePrice: stop.ReservePrice,
			Size:         stop.Remaining(),
			Action:       stop.Action,
			Timestamp:    cmd.Timestamp,
			VisibleSize:  stop.VisibleSize,
			ExpireTime:   stop.ExpireTime,
		}
		if stop.OrderType == common.StopMarket {
			triggerCmd.OrderType = common.IOC
			triggerCmd.Price = sweepPrice(stop.Action)
		} else {
			triggerCmd.OrderType = common.GTC
			triggerCmd.Price = stop.Price
		}

		triggerCmd.ResultCode = b.Place(triggerCmd)
		cmd.CascadedCommands = append(cmd.CascadedCommands, triggerCmd)
	}
}
