package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EnumerableOwnership is the read side of an ERC-721 enumerable collection.
type EnumerableOwnership interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
}

// NFTApprover authorizes an operator to move tokens.
type NFTApprover interface {
	Approve(opts *bind.TransactOpts, to common.Address, tokenID *big.Int) (*types.Transaction, error)
	SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Transaction, error)
}

// NFTCollection is a collection the dashboard both reads and approves on.
type NFTCollection interface {
	EnumerableOwnership
	NFTApprover
}

// SwapPoolReader reads pool parameters.
type SwapPoolReader interface {
	NFTCollection(ctx context.Context) (common.Address, error)
	SwapFeeInWei(ctx context.Context) (*big.Int, error)
}

// SwapPoolWriter submits pool transactions.
type SwapPoolWriter interface {
	SwapNFT(opts *bind.TransactOpts, tokenIDIn, tokenIDOut *big.Int) (*types.Transaction, error)
	StakeNFT(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)
}

// SwapPool is a single pool contract.
type SwapPool interface {
	SwapPoolReader
	SwapPoolWriter
}

// FactoryReader reads the pool registry.
type FactoryReader interface {
	GetAllPools(ctx context.Context) ([]common.Address, error)
	Owner(ctx context.Context) (common.Address, error)
}

// CreatePoolArgs are the createPool call arguments.
type CreatePoolArgs struct {
	NFTCollection   common.Address
	ReceiptContract common.Address
	StonerPool      common.Address
	SwapFeeInWei    *big.Int
	StonerShare     *big.Int
}

// FactoryWriter creates pools and decodes the resulting event.
type FactoryWriter interface {
	CreatePool(opts *bind.TransactOpts, args CreatePoolArgs) (*types.Transaction, error)
	// ParsePoolCreated extracts the new pool address from a PoolCreated log.
	ParsePoolCreated(log types.Log) (common.Address, error)
}

// Factory is the pool factory contract.
type Factory interface {
	FactoryReader
	FactoryWriter
}

// StakingReader reads the staking pool.
type StakingReader interface {
	TotalStaked(ctx context.Context) (*big.Int, error)
	StakedTokens(ctx context.Context, account common.Address) ([]*big.Int, error)
	Rewards(ctx context.Context, account common.Address) (*big.Int, error)
	TotalRewardsClaimed(ctx context.Context) (*big.Int, error)
}

// StakingWriter submits staking transactions.
type StakingWriter interface {
	Stake(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)
	Unstake(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)
	ClaimNative(opts *bind.TransactOpts) (*types.Transaction, error)
}

// StakingPool is the staking pool contract.
type StakingPool interface {
	StakingReader
	StakingWriter
}

// TxWaiter blocks until a transaction is mined.
type TxWaiter interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// ContractSet hands out accessors for every contract kind the dashboard uses.
type ContractSet interface {
	TxWaiter
	Factory() Factory
	StakingPool() StakingPool
	StakeReceipt() EnumerableOwnership
	SwapPool(address common.Address) SwapPool
	Collection(address common.Address) NFTCollection
}
