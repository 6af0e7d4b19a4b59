package entity

import "math/big"

// StakingStats is a point-in-time snapshot of the staking pool for one account.
// A refresh replaces it wholesale.
type StakingStats struct {
	Account             string   `json:"account"`
	TotalStaked         string   `json:"totalStaked"`
	UserStakedCount     int      `json:"userStakedCount"`
	PendingRewards      string   `json:"pendingRewards"`
	PendingRewardsWei   *big.Int `json:"pendingRewardsWei"`
	TotalRewardsClaimed string   `json:"totalRewardsClaimed"`
	UserReceiptCount    uint64   `json:"userReceiptCount"`
	Available           bool     `json:"available"`
}

// HasPendingRewards reports whether there is anything to claim.
func (s StakingStats) HasPendingRewards() bool {
	return s.PendingRewardsWei != nil && s.PendingRewardsWei.Sign() > 0
}
