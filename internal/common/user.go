package common

// PositionRecord is a per-symbol position record. The spot matching path
// only records it; it is not read back into matching decisions.
type PositionRecord struct {
	Uid            UserId
	Symbol         SymbolId
	OpenVolumeLong  int64
	OpenVolumeShort int64
	OpenPriceLong   int64
	OpenPriceShort  int64
}

// UserProfile is a per-user balance and position ledger.
type UserProfile struct {
	Uid       UserId
	Accounts  map[Currency]int64
	Positions map[SymbolId]*PositionRecord
}

func NewUserProfile(uid UserId) *UserProfile {
	return &UserProfile{
		Uid:       uid,
		Accounts:  make(map[Currency]int64),
		Positions: make(map[SymbolId]*PositionRecord),
	}
}

// Balance returns the balance held in currency, defaulting to zero.
func (p *UserProfile) Balance(currency Currency) int64 {
	return p.Accounts[currency]
}

// Credit adds amount (which may be negative) to the user's balance in
// currency.
func (p *UserProfile) Credit(currency Currency, amount int64) {
	p.Accounts[currency] += amount
}
