package port

import (
	"context"

	"jpeg_swap/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// PoolQueries are the read-only pool views. They never return errors: failures
// are logged and reduced to defaults or placeholders.
type PoolQueries interface {
	ListPools(ctx context.Context, contracts ContractSet) entity.PoolList
	LoadPool(ctx context.Context, contracts ContractSet, pool, viewer common.Address) entity.PoolInventory
	FactoryRegistry(ctx context.Context, contracts ContractSet, viewer common.Address) entity.FactoryRegistry
}

// StakingQueries are the read-only staking views.
type StakingQueries interface {
	Stats(ctx context.Context, contracts ContractSet, account common.Address) entity.StakingStats
	Receipts(ctx context.Context, contracts ContractSet, account common.Address) []entity.NFTItem
}

// Dashboard is what the HTTP surface drives.
type Dashboard interface {
	Connect(ctx context.Context) (entity.Connection, error)
	Disconnect()
	ChangeAccount(ctx context.Context, account string) (entity.Connection, error)
	Connection() entity.Connection
	Refresh(ctx context.Context)

	PoolList() entity.PoolList
	SelectPool(ctx context.Context, address string) (entity.PoolInventory, error)
	FactoryRegistry() entity.FactoryRegistry
	StakingStats() entity.StakingStats
	Receipts() []entity.NFTItem

	Swap(ctx context.Context, pool string, form entity.PoolCardForm) (entity.CommandResult, error)
	StakeInPool(ctx context.Context, pool string, tokenID string) (entity.CommandResult, error)
	Stake(ctx context.Context, tokenID string) (entity.CommandResult, error)
	Unstake(ctx context.Context, tokenID string) (entity.CommandResult, error)
	Claim(ctx context.Context) (entity.CommandResult, error)
	CreatePool(ctx context.Context, form entity.FactoryForm) (entity.CommandResult, error)
}
