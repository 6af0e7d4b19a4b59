package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/walletloader"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ChainIDReader reports the chain a node serves.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// NetworkNamer turns a chain id into a display name.
type NetworkNamer interface {
	NetworkName(chainID uint64) string
}

// KeyedWallet implements port.WalletProvider with locally held keys.
type KeyedWallet struct {
	chain          ChainIDReader
	keyring        *walletloader.Keyring
	names          NetworkNamer
	rpcCallTimeout time.Duration
}

var _ port.WalletProvider = (*KeyedWallet)(nil)

// NewKeyedWallet creates a wallet bound to the node behind chain.
func NewKeyedWallet(chain ChainIDReader, keyring *walletloader.Keyring, names NetworkNamer, rpcCallTimeout time.Duration) *KeyedWallet {
	return &KeyedWallet{chain: chain, keyring: keyring, names: names, rpcCallTimeout: rpcCallTimeout}
}

func (w *KeyedWallet) RequestAccounts(_ context.Context) ([]common.Address, error) {
	accounts := w.keyring.Accounts()
	if len(accounts) == 0 {
		return nil, &entity.ConnectionError{Reason: "no wallet accounts available, configure a private key or watch address"}
	}
	return accounts, nil
}

func (w *KeyedWallet) CanSign(account common.Address) bool {
	return w.keyring.CanSign(account)
}

func (w *KeyedWallet) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	key, ok := w.keyring.PrivateKey(account)
	if !ok {
		return nil, fmt.Errorf("account %s is watch-only", account.Hex())
	}
	chainID, err := w.chainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor for %s: %w", account.Hex(), err)
	}
	opts.Context = ctx
	return opts, nil
}

func (w *KeyedWallet) Network(ctx context.Context) (entity.NetworkInfo, error) {
	chainID, err := w.chainID(ctx)
	if err != nil {
		return entity.NetworkInfo{}, err
	}
	id := chainID.Uint64()
	return entity.NetworkInfo{ChainID: id, Name: w.names.NetworkName(id)}, nil
}

func (w *KeyedWallet) chainID(ctx context.Context) (*big.Int, error) {
	if w.rpcCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.rpcCallTimeout)
		defer cancel()
	}
	chainID, err := w.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	return chainID, nil
}
