package matching

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

func TestDispatchUnknownSymbol(t *testing.T) {
	r := New(2, zerolog.Nop())
	cmd := &common.Command{Command: common.PlaceOrder, Symbol: 1, ResultCode: common.ValidForMatchingEngine}
	r.Dispatch(cmd)
	assert.Equal(t, common.MatchingInvalidOrderBookId, cmd.ResultCode)
}

func TestDispatchSkipsPlaceOrderWithoutRiskApproval(t *testing.T) {
	r := New(2, zerolog.Nop())
	r.AddSymbol(common.DefaultSymbolSpec(1, 1, 2))

	cmd := &common.Command{Command: common.PlaceOrder, Symbol: 1, ResultCode: common.RiskNsf}
	r.Dispatch(cmd)
	assert.Equal(t, common.RiskNsf, cmd.ResultCode)
}

func TestDispatchPlaceAndCancel(t *testing.T) {
	r := New(4, zerolog.Nop())
	r.AddSymbol(common.DefaultSymbolSpec(7, 1, 2))

	place := &common.Command{
		Command: common.PlaceOrder, Symbol: 7, Uid: 1, OrderId: 1,
		Price: 100, Size: 5, Action: common.Ask, OrderType: common.GTC,
		ResultCode: common.ValidForMatchingEngine,
	}
	r.Dispatch(place)
	require.Equal(t, common.Success, place.ResultCode)

	l2, ok := r.L2(7, 5)
	require.True(t, ok)
	require.Len(t, l2.AskPrices, 1)
	assert.Equal(t, common.Price(100), l2.AskPrices[0])

	cancel := &common.Command{Command: common.CancelOrder, Symbol: 7, Uid: 1, OrderId: 1}
	r.Dispatch(cancel)
	assert.Equal(t, common.Success, cancel.ResultCode)

	l2, _ = r.L2(7, 5)
	assert.Empty(t, l2.AskPrices)
}

func TestSymbolsAcrossShards(t *testing.T) {
	r := New(4, zerolog.Nop())
	r.AddSymbol(common.DefaultSymbolSpec(1, 1, 2))
	r.AddSymbol(common.DefaultSymbolSpec(2, 1, 2))
	r.AddSymbol(common.DefaultSymbolSpec(3, 1, 2))

	ids := r.Symbols()
	assert.Len(t, ids, 3)
}
