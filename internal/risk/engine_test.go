package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

const (
	base  common.Currency = 1
	quote common.Currency = 2
)

func newTestEngine() *Engine {
	e := New(4, zerolog.Nop())
	e.AddSymbol(common.SymbolSpec{
		SymbolId:      1,
		SymbolType:    common.SpotPair,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		BaseScaleK:    1,
		QuoteScaleK:   1,
		TakerFee:      1,
		MakerFee:      1,
	})
	return e
}

func mustAddUser(t *testing.T, e *Engine, uid common.UserId, quoteBal, baseBal int64) {
	t.Helper()
	cmd := &common.Command{Command: common.AddUser, Uid: uid}
	e.PreProcess(cmd)
	require.Equal(t, common.Success, cmd.ResultCode)

	profile, ok := e.userProfile(uid)
	require.True(t, ok)
	profile.Credit(quote, quoteBal)
	profile.Credit(base, baseBal)
}

func TestAddUserDuplicateRejected(t *testing.T) {
	e := newTestEngine()
	cmd := &common.Command{Command: common.AddUser, Uid: 1}
	e.PreProcess(cmd)
	assert.Equal(t, common.Success, cmd.ResultCode)

	dup := &common.Command{Command: common.AddUser, Uid: 1}
	e.PreProcess(dup)
	assert.Equal(t, common.UserMgmtUserAlreadyExists, dup.ResultCode)
}

func TestBalanceAdjustment(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 0, 0)

	cmd := &common.Command{Command: common.BalanceAdjustment, Uid: 1, Symbol: common.SymbolId(quote), Price: 500}
	e.PreProcess(cmd)
	assert.Equal(t, common.Success, cmd.ResultCode)

	profile, _ := e.userProfile(1)
	assert.Equal(t, int64(500), profile.Balance(quote))
}

func TestBalanceAdjustmentUnknownUser(t *testing.T) {
	e := newTestEngine()
	cmd := &common.Command{Command: common.BalanceAdjustment, Uid: 99, Symbol: common.SymbolId(quote), Price: 500}
	e.PreProcess(cmd)
	assert.Equal(t, common.AuthInvalidUser, cmd.ResultCode)
}

func TestPreProcessPlaceOrderBidHoldsQuote(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 1000, 0)

	cmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 1,
		Price: 100, ReservePrice: 100, Size: 5, Action: common.Bid, OrderType: common.GTC,
	}
	e.PreProcess(cmd)
	require.Equal(t, common.ValidForMatchingEngine, cmd.ResultCode)

	profile, _ := e.userProfile(1)
	// hold = size*reserve*scale + size*takerFee = 5*100 + 5*1 = 505
	assert.Equal(t, int64(1000-505), profile.Balance(quote))
}

func TestPreProcessPlaceOrderAskHoldsBase(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 0, 10)

	cmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 1,
		Price: 100, Size: 5, Action: common.Ask, OrderType: common.GTC,
	}
	e.PreProcess(cmd)
	require.Equal(t, common.ValidForMatchingEngine, cmd.ResultCode)

	profile, _ := e.userProfile(1)
	assert.Equal(t, int64(10-5), profile.Balance(base))
}

func TestPreProcessPlaceOrderInsufficientFunds(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 10, 0)

	cmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 1,
		Price: 100, ReservePrice: 100, Size: 5, Action: common.Bid, OrderType: common.GTC,
	}
	e.PreProcess(cmd)
	assert.Equal(t, common.RiskNsf, cmd.ResultCode)

	profile, _ := e.userProfile(1)
	assert.Equal(t, int64(10), profile.Balance(quote))
}

// The hold formula applies uniformly regardless of symbol type: a
// Futures symbol risk-gates a PlaceOrder the same way a spot pair does,
// rather than being rejected outright for its symbol type.
func TestPreProcessPlaceOrderNonSpotSymbol(t *testing.T) {
	e := New(4, zerolog.Nop())
	e.AddSymbol(common.SymbolSpec{
		SymbolId:      2,
		SymbolType:    common.Futures,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		BaseScaleK:    1,
		QuoteScaleK:   1,
		TakerFee:      1,
		MakerFee:      1,
	})
	mustAddUser(t, e, 1, 1000, 0)

	cmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 2,
		Price: 100, ReservePrice: 100, Size: 5, Action: common.Bid, OrderType: common.GTC,
	}
	e.PreProcess(cmd)
	require.Equal(t, common.ValidForMatchingEngine, cmd.ResultCode)

	profile, _ := e.userProfile(1)
	assert.Equal(t, int64(1000-505), profile.Balance(quote))
}

func TestPreProcessPlaceOrderUnknownSymbol(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 1000, 0)

	cmd := &common.Command{Command: common.PlaceOrder, Uid: 1, Symbol: 99, Size: 5, Action: common.Bid}
	e.PreProcess(cmd)
	assert.Equal(t, common.InvalidSymbol, cmd.ResultCode)
}

// A full trade settles with zero net balance movement across both parties,
// modulo the fees collected.
func TestPostProcessTradeZeroSumModuloFees(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 1000, 0) // bidder
	mustAddUser(t, e, 2, 0, 10)   // asker (maker)

	bidCmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 1,
		Price: 105, ReservePrice: 105, Size: 5, Action: common.Bid, OrderType: common.GTC,
	}
	e.PreProcess(bidCmd)
	require.Equal(t, common.ValidForMatchingEngine, bidCmd.ResultCode)

	// The maker's ask rested at 100; the trade executes at the maker's
	// price with the bidder's reserve (105) as the hold price.
	bidCmd.MatcherEvents = append(bidCmd.MatcherEvents, common.NewTradeEvent(5, 100, 10, 2, 105))
	bidCmd.Action = common.Bid
	e.PostProcess(bidCmd)
	assert.Equal(t, common.Success, bidCmd.ResultCode)

	bidder, _ := e.userProfile(1)
	maker, _ := e.userProfile(2)

	// bidder: held 5*105+5 = 530 at placement, gets back overage
	// 5*(105-100)=25 plus 5 base on settlement.
	assert.Equal(t, int64(1000-530+25), bidder.Balance(quote))
	assert.Equal(t, int64(5), bidder.Balance(base))

	// maker: held 5 base at its own placement (not modeled here), receives
	// 5*100 - makerFee*5 = 500-5 = 495 in quote on settlement.
	assert.Equal(t, int64(495), maker.Balance(quote))

	totalQuote := bidder.Balance(quote) + maker.Balance(quote)
	// Total quote in the system before this trade: 1000 (bidder's deposit).
	// Fees collected: takerFee*5 + makerFee*5 = 10.
	assert.Equal(t, int64(1000-10), totalQuote)
}

func TestPostProcessRejectRefundsHold(t *testing.T) {
	e := newTestEngine()
	mustAddUser(t, e, 1, 1000, 0)

	cmd := &common.Command{
		Command: common.PlaceOrder, Uid: 1, Symbol: 1,
		Price: 100, ReservePrice: 100, Size: 5, Action: common.Bid, OrderType: common.IOC,
	}
	e.PreProcess(cmd)
	require.Equal(t, common.ValidForMatchingEngine, cmd.ResultCode)

	cmd.MatcherEvents = append(cmd.MatcherEvents, common.NewRejectEvent(5, 100))
	e.PostProcess(cmd)

	profile, _ := e.userProfile(1)
	assert.Equal(t, int64(1000), profile.Balance(quote))
}

func TestPostProcessPreservesMatchingErrorCode(t *testing.T) {
	e := newTestEngine()
	cmd := &common.Command{Command: common.CancelOrder, Uid: 1, Symbol: 1, ResultCode: common.MatchingUnknownOrderId}
	e.PostProcess(cmd)
	assert.Equal(t, common.MatchingUnknownOrderId, cmd.ResultCode)
}
