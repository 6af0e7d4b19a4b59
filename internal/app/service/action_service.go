package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/metrics"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Guard errors. A command rejected by a guard never leaves Idle and submits nothing.
var (
	ErrSurfaceBusy    = errors.New("another command is already submitting")
	ErrMissingInput   = errors.New("required input missing")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotOwner       = errors.New("only the factory owner can create pools")
	ErrNothingToClaim = errors.New("no pending rewards to claim")
	ErrWatchOnly      = errors.New("account cannot sign transactions")
)

const defaultStonerShare = 10

// defaultSwapFeeWei is 0.001 ether.
var defaultSwapFeeWei = big.NewInt(1_000_000_000_000_000)

// Signing is what a command needs from the live session.
type Signing struct {
	Contracts port.ContractSet
	Wallet    port.WalletProvider
	Account   common.Address
}

type sendFunc func(opts *bind.TransactOpts) (*types.Transaction, error)

// ActionServiceImpl runs the action commands. Each command: guard, optional
// approval awaited to completion, primary transaction, one confirmation.
type ActionServiceImpl struct {
	logger      port.Logger
	factory     common.Address
	receiptAddr common.Address
	stonerPool  common.Address
}

// NewActionService creates a new instance of ActionServiceImpl.
func NewActionService(cfg *configloader.Config, l port.Logger) *ActionServiceImpl {
	return &ActionServiceImpl{
		logger:      l,
		factory:     common.HexToAddress(cfg.Contracts.FactoryAddress),
		receiptAddr: common.HexToAddress(cfg.Contracts.StakeReceiptAddress),
		stonerPool:  common.HexToAddress(cfg.Contracts.StonerPoolAddress),
	}
}

// Swap approves the pool for the whole collection, then swaps tokenIdIn for the
// selected pool token paying the pool's swap fee.
func (s *ActionServiceImpl) Swap(ctx context.Context, sig Signing, surface *Surface[entity.PoolCardForm], pool common.Address, form entity.PoolCardForm) (entity.CommandResult, error) {
	kind := entity.CommandSwap
	if form.SelectedPoolTokenID == "" || form.TokenIDIn == "" {
		return guarded(kind, ErrMissingInput)
	}
	tokenOut, err := parseTokenID(form.SelectedPoolTokenID)
	if err != nil {
		return guarded(kind, err)
	}
	tokenIn, err := parseTokenID(form.TokenIDIn)
	if err != nil {
		return guarded(kind, err)
	}

	return runCommand(s, surface, kind, sig, func(f *entity.PoolCardForm) { *f = form },
		func() (entity.CommandResult, error) {
			swapPool := sig.Contracts.SwapPool(pool)
			collection, err := swapPool.NFTCollection(ctx)
			if err != nil {
				return entity.CommandResult{}, txFailure(kind, entity.StagePrepare, "", err)
			}
			fee, err := swapPool.SwapFeeInWei(ctx)
			if err != nil {
				return entity.CommandResult{}, txFailure(kind, entity.StagePrepare, "", err)
			}

			approve := func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return sig.Contracts.Collection(collection).SetApprovalForAll(opts, pool, true)
			}
			swap := func(opts *bind.TransactOpts) (*types.Transaction, error) {
				paid := *opts
				paid.Value = new(big.Int).Set(fee)
				return swapPool.SwapNFT(&paid, tokenIn, tokenOut)
			}
			res, _, err := s.execute(ctx, kind, sig, approve, swap)
			res.PoolAddress = pool.Hex()
			res.Message = fmt.Sprintf("Swap successful! You received NFT #%s", tokenOut.String())
			return res, err
		},
		func(f *entity.PoolCardForm) { *f = entity.PoolCardForm{} },
	)
}

// StakeInPool approves the pool for one token, then stakes it into the pool.
func (s *ActionServiceImpl) StakeInPool(ctx context.Context, sig Signing, surface *Surface[entity.PoolCardForm], pool common.Address, tokenIDStr string) (entity.CommandResult, error) {
	kind := entity.CommandStakeInPool
	if tokenIDStr == "" {
		return guarded(kind, ErrMissingInput)
	}
	tokenID, err := parseTokenID(tokenIDStr)
	if err != nil {
		return guarded(kind, err)
	}

	return runCommand(s, surface, kind, sig, nil,
		func() (entity.CommandResult, error) {
			swapPool := sig.Contracts.SwapPool(pool)
			collection, err := swapPool.NFTCollection(ctx)
			if err != nil {
				return entity.CommandResult{}, txFailure(kind, entity.StagePrepare, "", err)
			}

			approve := func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return sig.Contracts.Collection(collection).Approve(opts, pool, tokenID)
			}
			stake := func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return swapPool.StakeNFT(opts, tokenID)
			}
			res, _, err := s.execute(ctx, kind, sig, approve, stake)
			res.PoolAddress = pool.Hex()
			res.Message = fmt.Sprintf("NFT #%s staked in pool successfully!", tokenID.String())
			return res, err
		},
		nil,
	)
}

// Stake stakes one token into the staking pool.
func (s *ActionServiceImpl) Stake(ctx context.Context, sig Signing, surface *Surface[entity.StakingForm], tokenIDStr string) (entity.CommandResult, error) {
	kind := entity.CommandStake
	if tokenIDStr == "" {
		return guarded(kind, ErrMissingInput)
	}
	tokenID, err := parseTokenID(tokenIDStr)
	if err != nil {
		return guarded(kind, err)
	}

	return runCommand(s, surface, kind, sig, func(f *entity.StakingForm) { f.StakeTokenID = tokenIDStr },
		func() (entity.CommandResult, error) {
			res, _, err := s.execute(ctx, kind, sig, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return sig.Contracts.StakingPool().Stake(opts, tokenID)
			})
			res.Message = fmt.Sprintf("NFT #%s staked successfully!", tokenID.String())
			return res, err
		},
		func(f *entity.StakingForm) { f.StakeTokenID = "" },
	)
}

// Unstake withdraws one token from the staking pool.
func (s *ActionServiceImpl) Unstake(ctx context.Context, sig Signing, surface *Surface[entity.StakingForm], tokenIDStr string) (entity.CommandResult, error) {
	kind := entity.CommandUnstake
	if tokenIDStr == "" {
		return guarded(kind, ErrMissingInput)
	}
	tokenID, err := parseTokenID(tokenIDStr)
	if err != nil {
		return guarded(kind, err)
	}

	return runCommand(s, surface, kind, sig, func(f *entity.StakingForm) { f.UnstakeTokenID = tokenIDStr },
		func() (entity.CommandResult, error) {
			res, _, err := s.execute(ctx, kind, sig, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return sig.Contracts.StakingPool().Unstake(opts, tokenID)
			})
			res.Message = fmt.Sprintf("NFT #%s unstaked successfully!", tokenID.String())
			return res, err
		},
		func(f *entity.StakingForm) { f.UnstakeTokenID = "" },
	)
}

// Claim withdraws pending native rewards. pendingRewards comes from the latest stats snapshot.
func (s *ActionServiceImpl) Claim(ctx context.Context, sig Signing, surface *Surface[entity.StakingForm], pendingRewards *big.Int) (entity.CommandResult, error) {
	kind := entity.CommandClaim
	if pendingRewards == nil || pendingRewards.Sign() <= 0 {
		return guarded(kind, ErrNothingToClaim)
	}

	return runCommand(s, surface, kind, sig, nil,
		func() (entity.CommandResult, error) {
			res, _, err := s.execute(ctx, kind, sig, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return sig.Contracts.StakingPool().ClaimNative(opts)
			})
			res.Message = "Rewards claimed successfully!"
			return res, err
		},
		nil,
	)
}

// CreatePool creates a swap pool through the factory. Blank receipt, stoner pool,
// fee and share fall back to the configured contracts, 0.001 ether and 10.
func (s *ActionServiceImpl) CreatePool(ctx context.Context, sig Signing, surface *Surface[entity.FactoryForm], isOwner bool, form entity.FactoryForm) (entity.CommandResult, error) {
	kind := entity.CommandCreatePool
	if !isOwner {
		return guarded(kind, ErrNotOwner)
	}
	if form.NFTCollection == "" {
		return guarded(kind, ErrMissingInput)
	}
	args, err := s.createPoolArgs(form)
	if err != nil {
		return guarded(kind, err)
	}

	return runCommand(s, surface, kind, sig, func(f *entity.FactoryForm) { *f = form },
		func() (entity.CommandResult, error) {
			factory := sig.Contracts.Factory()
			res, receipt, err := s.execute(ctx, kind, sig, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return factory.CreatePool(opts, args)
			})
			if err != nil {
				return res, err
			}

			res.Message = "Pool created successfully!"
			for _, log := range receipt.Logs {
				if log == nil || log.Address != s.factory {
					continue
				}
				if pool, perr := factory.ParsePoolCreated(*log); perr == nil {
					res.PoolAddress = pool.Hex()
					res.Message = "Pool created successfully! Address: " + pool.Hex()
					break
				}
			}
			if res.PoolAddress == "" {
				s.logger.Warn("PoolCreated event not found in receipt", "tx_hash", res.TxHash)
			}
			return res, nil
		},
		func(f *entity.FactoryForm) { f.NFTCollection = "" },
	)
}

func (s *ActionServiceImpl) createPoolArgs(form entity.FactoryForm) (port.CreatePoolArgs, error) {
	args := port.CreatePoolArgs{
		ReceiptContract: s.receiptAddr,
		StonerPool:      s.stonerPool,
		SwapFeeInWei:    new(big.Int).Set(defaultSwapFeeWei),
		StonerShare:     big.NewInt(defaultStonerShare),
	}

	var err error
	if args.NFTCollection, err = parseAddress("nftCollection", form.NFTCollection); err != nil {
		return args, err
	}
	if form.ReceiptContract != "" {
		if args.ReceiptContract, err = parseAddress("receiptContract", form.ReceiptContract); err != nil {
			return args, err
		}
	}
	if form.StonerPool != "" {
		if args.StonerPool, err = parseAddress("stonerPool", form.StonerPool); err != nil {
			return args, err
		}
	}
	switch {
	case form.SwapFeeInWei != "":
		if args.SwapFeeInWei, err = utils.ParseTokenID(form.SwapFeeInWei); err != nil {
			return args, fmt.Errorf("%w: swapFeeInWei: %v", ErrInvalidInput, err)
		}
	case form.SwapFee != "":
		fee, perr := utils.ParseUnits(form.SwapFee, 18)
		if perr != nil || fee.Sign() < 0 {
			return args, fmt.Errorf("%w: swapFee: invalid ether amount %q", ErrInvalidInput, form.SwapFee)
		}
		args.SwapFeeInWei = fee
	}
	if form.StonerShare != "" {
		if args.StonerShare, err = utils.ParseTokenID(form.StonerShare); err != nil {
			return args, fmt.Errorf("%w: stonerShare: %v", ErrInvalidInput, err)
		}
	}
	return args, nil
}

// execute signs, runs the optional approval to completion, then the primary
// transaction, and waits for one confirmation of each.
func (s *ActionServiceImpl) execute(ctx context.Context, kind entity.CommandKind, sig Signing, approval, primary sendFunc) (entity.CommandResult, *types.Receipt, error) {
	res := entity.CommandResult{Kind: kind}

	opts, err := sig.Wallet.Signer(ctx, sig.Account)
	if err != nil {
		return res, nil, txFailure(kind, entity.StageSigner, "", err)
	}

	if approval != nil {
		hash, _, err := s.sendAndWait(ctx, sig.Contracts, opts, approval)
		res.ApprovalTx = hash
		if err != nil {
			return res, nil, txFailure(kind, entity.StageApproval, hash, err)
		}
		s.logger.Info("Approval confirmed", "command", kind, "tx_hash", hash)
	}

	hash, receipt, err := s.sendAndWait(ctx, sig.Contracts, opts, primary)
	res.TxHash = hash
	if err != nil {
		stage := entity.StageConfirm
		if hash == "" {
			stage = entity.StageSubmit
		}
		return res, nil, txFailure(kind, stage, hash, err)
	}
	return res, receipt, nil
}

func (s *ActionServiceImpl) sendAndWait(ctx context.Context, waiter port.TxWaiter, opts *bind.TransactOpts, send sendFunc) (string, *types.Receipt, error) {
	tx, err := send(opts)
	if err != nil {
		return "", nil, err
	}
	hash := tx.Hash().Hex()
	s.logger.Debug("Transaction submitted", "tx_hash", hash)

	receipt, err := waiter.WaitMined(ctx, tx)
	if err != nil {
		return hash, nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, receipt, errors.New("transaction reverted")
	}
	return hash, receipt, nil
}

// runCommand drives a surface through Idle -> Submitting -> Confirmed|Failed -> Idle.
// store records the submitted inputs on the surface; clear resets them on confirmation.
func runCommand[F any](
	s *ActionServiceImpl,
	surface *Surface[F],
	kind entity.CommandKind,
	sig Signing,
	store func(*F),
	body func() (entity.CommandResult, error),
	clear func(*F),
) (entity.CommandResult, error) {
	if !sig.Wallet.CanSign(sig.Account) {
		return guarded(kind, ErrWatchOnly)
	}
	if !surface.begin() {
		metrics.Commands.WithLabelValues(string(kind), "busy").Inc()
		return entity.CommandResult{Kind: kind, State: entity.StateSubmitting, Message: ErrSurfaceBusy.Error()}, ErrSurfaceBusy
	}
	if store != nil {
		surface.UpdateForm(store)
	}
	s.logger.Info("Command submitting", "command", kind, "surface", surface.Name(), "account", sig.Account.Hex())

	res, err := body()
	res.Kind = kind
	if err != nil {
		surface.finish(entity.StateFailed)
		metrics.Commands.WithLabelValues(string(kind), "failed").Inc()
		s.logger.Error("Command failed", "command", kind, "surface", surface.Name(), "error", err)
		res.State = entity.StateFailed
		res.Message = err.Error()
		return res, err
	}

	if clear != nil {
		surface.UpdateForm(clear)
	}
	surface.finish(entity.StateConfirmed)
	metrics.Commands.WithLabelValues(string(kind), "confirmed").Inc()
	s.logger.Info("Command confirmed", "command", kind, "surface", surface.Name(), "tx_hash", res.TxHash)
	res.State = entity.StateConfirmed
	return res, nil
}

func guarded(kind entity.CommandKind, err error) (entity.CommandResult, error) {
	metrics.Commands.WithLabelValues(string(kind), "guarded").Inc()
	return entity.CommandResult{Kind: kind, State: entity.StateIdle, Message: err.Error()}, err
}

func txFailure(kind entity.CommandKind, stage entity.TxStage, hash string, err error) error {
	return &entity.TransactionFailure{Kind: kind, Stage: stage, TxHash: hash, Err: err}
}

func parseTokenID(raw string) (*big.Int, error) {
	id, err := utils.ParseTokenID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: token id %q: %v", ErrInvalidInput, raw, err)
	}
	return id, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if !utils.IsValidAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", ErrInvalidInput, field, raw)
	}
	return common.HexToAddress(raw), nil
}
