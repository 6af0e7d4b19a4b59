package service

import (
	"context"
	"errors"
	"math/big"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// StakingServiceImpl implements port.StakingQueries.
type StakingServiceImpl struct {
	enum                *tokenEnumerator
	logger              port.Logger
	stonerPoolAddress   string
	stakeReceiptAddress common.Address
}

// NewStakingService creates a new instance of StakingServiceImpl.
func NewStakingService(cfg *configloader.Config, metadata port.MetadataFetcher, l port.Logger) port.StakingQueries {
	return &StakingServiceImpl{
		enum:                newTokenEnumerator(cfg, metadata, l),
		logger:              l,
		stonerPoolAddress:   common.HexToAddress(cfg.Contracts.StonerPoolAddress).Hex(),
		stakeReceiptAddress: common.HexToAddress(cfg.Contracts.StakeReceiptAddress),
	}
}

// Stats reads the five staking figures. They form one snapshot: if any read
// fails the whole snapshot is reported unavailable.
func (s *StakingServiceImpl) Stats(ctx context.Context, contracts port.ContractSet, account common.Address) entity.StakingStats {
	defer observeQuery("staking_stats", time.Now())

	if account == (common.Address{}) {
		return entity.StakingStats{}
	}

	var (
		totalStaked, rewards, claimed, receipts *big.Int
		staked                                  []*big.Int
	)
	pool := contracts.StakingPool()
	g, gctx := errgroup.WithContext(ctx)
	read := func(method string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				return &entity.ReadFailure{Query: "staking_stats", Target: s.stonerPoolAddress, Method: method, Err: err}
			}
			return nil
		})
	}
	read("totalStaked", func() (err error) { totalStaked, err = pool.TotalStaked(gctx); return })
	read("stakedTokens", func() (err error) { staked, err = pool.StakedTokens(gctx, account); return })
	read("rewards", func() (err error) { rewards, err = pool.Rewards(gctx, account); return })
	read("totalRewardsClaimed", func() (err error) { claimed, err = pool.TotalRewardsClaimed(gctx); return })
	read("balanceOf", func() (err error) { receipts, err = contracts.StakeReceipt().BalanceOf(gctx, account); return })

	if err := g.Wait(); err != nil {
		var rf *entity.ReadFailure
		if errors.As(err, &rf) {
			s.enum.readFailure(rf, "contract")
		}
		return entity.StakingStats{Account: account.Hex()}
	}

	return entity.StakingStats{
		Account:             account.Hex(),
		TotalStaked:         totalStaked.String(),
		UserStakedCount:     len(staked),
		PendingRewards:      utils.FormatTokenAmount(rewards),
		PendingRewardsWei:   rewards,
		TotalRewardsClaimed: utils.FormatTokenAmount(claimed),
		UserReceiptCount:    receipts.Uint64(),
		Available:           true,
	}
}

// Receipts lists the account's stake receipts in owner-index order.
func (s *StakingServiceImpl) Receipts(ctx context.Context, contracts port.ContractSet, account common.Address) []entity.NFTItem {
	defer observeQuery("receipts", time.Now())

	if account == (common.Address{}) {
		return []entity.NFTItem{}
	}
	return s.enum.enumerate(ctx, contracts.StakeReceipt(), enumeration{
		query:      "receipts",
		label:      entity.StakeReceiptLabel,
		collection: s.stakeReceiptAddress,
		owner:      account,
	})
}
