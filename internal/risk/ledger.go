// Package risk implements the two-phase pre-trade / post-trade engine:
// R1 reserves collateral before a command reaches matching, R2 settles
// balances from the matcher events it produced. State is partitioned by
// uid into shards (the shard type below), a sharded layout generalized
// from a single fixed books map keyed by symbol to one keyed by uid, and
// grounded algorithmically on original_source's
// core/processors/risk_engine.rs and core/users.rs.
package risk

import "matchcore/internal/common"

// shard owns a disjoint partition of user profiles, keyed by uid & mask.
type shard struct {
	users map[common.UserId]*common.UserProfile
}

func newShard() *shard {
	return &shard{users: make(map[common.UserId]*common.UserProfile)}
}

func (s *shard) get(uid common.UserId) (*common.UserProfile, bool) {
	p, ok := s.users[uid]
	return p, ok
}

func (s *shard) addUser(uid common.UserId) bool {
	if _, exists := s.users[uid]; exists {
		return false
	}
	s.users[uid] = common.NewUserProfile(uid)
	return true
}
