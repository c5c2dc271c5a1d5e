package risk

import (
	"github.com/rs/zerolog"

	"matchcore/internal/common"
)

// Engine is the sharded risk/settlement engine. Shard count must be a
// power of two; shard index = uid & mask.
type Engine struct {
	mask   uint64
	shards []*shard
	symbols map[common.SymbolId]common.SymbolSpec
	log     zerolog.Logger
}

// New constructs an Engine with the given number of shards (a power of two).
func New(shardCount int, log zerolog.Logger) *Engine {
	if shardCount <= 0 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = newShard()
	}
	return &Engine{
		mask:    uint64(shardCount - 1),
		shards:  shards,
		symbols: make(map[common.SymbolId]common.SymbolSpec),
		log:     log.With().Str("component", "risk").Logger(),
	}
}

func (e *Engine) shardFor(uid common.UserId) *shard {
	return e.shards[uint64(uid)&e.mask]
}

// AddSymbol registers a symbol's risk parameters (scales, fees). Every
// shard shares this read-only table; it is never mutated mid-command.
func (e *Engine) AddSymbol(spec common.SymbolSpec) {
	e.symbols[spec.SymbolId] = spec
}

func (e *Engine) symbolSpec(id common.SymbolId) (common.SymbolSpec, bool) {
	spec, ok := e.symbols[id]
	return spec, ok
}

// Symbols returns every registered symbol spec, for snapshot serialization.
func (e *Engine) Symbols() []common.SymbolSpec {
	specs := make([]common.SymbolSpec, 0, len(e.symbols))
	for _, spec := range e.symbols {
		specs = append(specs, spec)
	}
	return specs
}

// Users returns every known user profile across all shards, for snapshot
// serialization.
func (e *Engine) Users() []*common.UserProfile {
	var profiles []*common.UserProfile
	for _, s := range e.shards {
		for _, p := range s.users {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// RestoreUser re-inserts a previously-known user profile directly into the
// shard that owns it, bypassing AddUser. Used only by snapshot load.
func (e *Engine) RestoreUser(profile *common.UserProfile) {
	e.shardFor(profile.Uid).users[profile.Uid] = profile
}

// userProfile fetches a user's profile from the shard that owns it,
// creating none: callers that need existence use AddUser first.
func (e *Engine) userProfile(uid common.UserId) (*common.UserProfile, bool) {
	return e.shardFor(uid).get(uid)
}

// PreProcess runs R1 for one command: risk-gates PlaceOrder, performs user
// management commands directly, and passes everything else through to the
// matching stage unconditionally.
func (e *Engine) PreProcess(cmd *common.Command) {
	switch cmd.Command {
	case common.PlaceOrder:
		cmd.ResultCode = e.preProcessPlaceOrder(cmd)
	case common.AddUser:
		cmd.ResultCode = e.addUser(cmd)
	case common.BalanceAdjustment:
		cmd.ResultCode = e.balanceAdjustment(cmd)
	case common.MoveOrder, common.CancelOrder, common.ReduceOrder, common.OrderBookRequest:
		cmd.ResultCode = common.ValidForMatchingEngine
	default:
		cmd.ResultCode = common.Accepted
	}
}

func (e *Engine) addUser(cmd *common.Command) common.CommandResultCode {
	if e.shardFor(cmd.Uid).addUser(cmd.Uid) {
		return common.Success
	}
	return common.UserMgmtUserAlreadyExists
}

// balanceAdjustment reuses cmd.Symbol as a Currency id and cmd.Price as
// the signed amount.
func (e *Engine) balanceAdjustment(cmd *common.Command) common.CommandResultCode {
	profile, ok := e.userProfile(cmd.Uid)
	if !ok {
		return common.AuthInvalidUser
	}
	profile.Credit(common.Currency(cmd.Symbol), int64(cmd.Price))
	return common.Success
}

// holdPriceForBid is the price used to size a bid's quote-currency hold:
// the order's Price field for budget order types (for FOKBudget that field
// carries the order's aggregate budget), otherwise its reserve price.
func holdPriceForBid(cmd *common.Command) common.Price {
	if cmd.OrderType == common.FOKBudget {
		return cmd.Price
	}
	return cmd.ReservePrice
}

func (e *Engine) preProcessPlaceOrder(cmd *common.Command) common.CommandResultCode {
	profile, ok := e.userProfile(cmd.Uid)
	if !ok {
		return common.AuthInvalidUser
	}
	spec, ok := e.symbolSpec(cmd.Symbol)
	if !ok {
		return common.InvalidSymbol
	}

	var currency common.Currency
	var holdAmount int64
	if cmd.Action == common.Bid {
		currency = spec.QuoteCurrency
		holdAmount = int64(cmd.Size)*int64(holdPriceForBid(cmd))*spec.QuoteScaleK + int64(cmd.Size)*spec.TakerFee
	} else {
		currency = spec.BaseCurrency
		holdAmount = int64(cmd.Size) * spec.BaseScaleK
	}

	if profile.Balance(currency) >= holdAmount {
		profile.Credit(currency, -holdAmount)
		return common.ValidForMatchingEngine
	}
	return common.RiskNsf
}

// PostProcess runs R2 for one command: settles every matcher event it
// carries, then marks the command done.
func (e *Engine) PostProcess(cmd *common.Command) {
	switch cmd.Command {
	case common.PlaceOrder, common.MoveOrder, common.CancelOrder, common.ReduceOrder:
		e.settle(cmd)
	default:
		if cmd.ResultCode == common.ValidForMatchingEngine || cmd.ResultCode == common.New || cmd.ResultCode == common.Accepted {
			cmd.ResultCode = common.Success
		}
	}
}
