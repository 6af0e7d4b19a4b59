package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/abiloader"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractBackend is everything the accessor needs from a node: calls,
// transaction submission and receipt lookups. *ethclient.Client satisfies it.
type ContractBackend interface {
	bind.ContractCaller
	bind.ContractTransactor
	bind.DeployBackend
}

// EVMContracts implements port.ContractSet on top of go-ethereum bound contracts.
type EVMContracts struct {
	backend        ContractBackend
	abis           abiloader.Set
	factory        common.Address
	stonerPool     common.Address
	stakeReceipt   common.Address
	rpcCallTimeout time.Duration
}

var _ port.ContractSet = (*EVMContracts)(nil)

// NewEVMContracts creates the accessor. Addresses are assumed validated by config loading.
func NewEVMContracts(backend ContractBackend, abis abiloader.Set, addrs entity.ContractAddresses, rpcCallTimeout time.Duration) *EVMContracts {
	return &EVMContracts{
		backend:        backend,
		abis:           abis,
		factory:        common.HexToAddress(addrs.Factory),
		stonerPool:     common.HexToAddress(addrs.StonerPool),
		stakeReceipt:   common.HexToAddress(addrs.StakeReceipt),
		rpcCallTimeout: rpcCallTimeout,
	}
}

// WaitMined blocks until tx has a receipt or ctx is done.
func (c *EVMContracts) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, c.backend, tx)
}

func (c *EVMContracts) Factory() port.Factory {
	return &factoryContract{c.bind(c.factory, c.abis.Factory)}
}

func (c *EVMContracts) StakingPool() port.StakingPool {
	return &stakingContract{c.bind(c.stonerPool, c.abis.StonerPool)}
}

func (c *EVMContracts) StakeReceipt() port.EnumerableOwnership {
	return &collectionContract{c.bind(c.stakeReceipt, c.abis.StakeReceipt)}
}

func (c *EVMContracts) SwapPool(address common.Address) port.SwapPool {
	return &swapPoolContract{c.bind(address, c.abis.SwapPool)}
}

func (c *EVMContracts) Collection(address common.Address) port.NFTCollection {
	return &collectionContract{c.bind(address, c.abis.ERC721)}
}

func (c *EVMContracts) bind(address common.Address, parsed abi.ABI) *contract {
	return &contract{
		address:     address,
		bound:       bind.NewBoundContract(address, parsed, c.backend, c.backend, nil),
		callTimeout: c.rpcCallTimeout,
	}
}

// contract wraps a bound contract with a per-call timeout.
type contract struct {
	address     common.Address
	bound       *bind.BoundContract
	callTimeout time.Duration
}

func (c *contract) call(ctx context.Context, method string, args ...any) (any, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, c.address.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s on %s: empty result", method, c.address.Hex())
	}
	return out[0], nil
}

func (c *contract) transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, c.address.Hex(), err)
	}
	return tx, nil
}

func (c *contract) callBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func (c *contract) callAddress(ctx context.Context, method string, args ...any) (common.Address, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out, new(common.Address)).(*common.Address), nil
}

type collectionContract struct{ *contract }

func (c *collectionContract) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callBig(ctx, "balanceOf", owner)
}

func (c *collectionContract) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	return c.callBig(ctx, "tokenOfOwnerByIndex", owner, index)
}

func (c *collectionContract) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := c.call(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

func (c *collectionContract) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return c.callAddress(ctx, "ownerOf", tokenID)
}

func (c *collectionContract) Approve(opts *bind.TransactOpts, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "approve", to, tokenID)
}

func (c *collectionContract) SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Transaction, error) {
	return c.transact(opts, "setApprovalForAll", operator, approved)
}

type swapPoolContract struct{ *contract }

func (c *swapPoolContract) NFTCollection(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "nftCollection")
}

func (c *swapPoolContract) SwapFeeInWei(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "swapFeeInWei")
}

func (c *swapPoolContract) SwapNFT(opts *bind.TransactOpts, tokenIDIn, tokenIDOut *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "swapNFT", tokenIDIn, tokenIDOut)
}

func (c *swapPoolContract) StakeNFT(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "stakeNFT", tokenID)
}

type factoryContract struct{ *contract }

func (c *factoryContract) GetAllPools(ctx context.Context) ([]common.Address, error) {
	out, err := c.call(ctx, "getAllPools")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new([]common.Address)).(*[]common.Address), nil
}

func (c *factoryContract) Owner(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "owner")
}

func (c *factoryContract) CreatePool(opts *bind.TransactOpts, args port.CreatePoolArgs) (*types.Transaction, error) {
	return c.transact(opts, "createPool",
		args.NFTCollection, args.ReceiptContract, args.StonerPool, args.SwapFeeInWei, args.StonerShare)
}

// poolCreated mirrors PoolCreated(address indexed pool, address indexed nftCollection).
type poolCreated struct {
	Pool          common.Address
	NftCollection common.Address
}

func (c *factoryContract) ParsePoolCreated(log types.Log) (common.Address, error) {
	var ev poolCreated
	if err := c.bound.UnpackLog(&ev, "PoolCreated", log); err != nil {
		return common.Address{}, err
	}
	return ev.Pool, nil
}

type stakingContract struct{ *contract }

func (c *stakingContract) TotalStaked(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "totalStaked")
}

func (c *stakingContract) StakedTokens(ctx context.Context, account common.Address) ([]*big.Int, error) {
	out, err := c.call(ctx, "stakedTokens", account)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new([]*big.Int)).(*[]*big.Int), nil
}

func (c *stakingContract) Rewards(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.callBig(ctx, "rewards", account)
}

func (c *stakingContract) TotalRewardsClaimed(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "totalRewardsClaimed")
}

func (c *stakingContract) Stake(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "stake", tokenID)
}

func (c *stakingContract) Unstake(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, "unstake", tokenID)
}

func (c *stakingContract) ClaimNative(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.transact(opts, "claimNative")
}
