package port

import (
	"context"

	"jpeg_swap/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// WalletProvider is the signer side of a connection.
type WalletProvider interface {
	// RequestAccounts lists the accounts the wallet can act as, the first one being the default.
	// An empty wallet is a *entity.ConnectionError.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Signer returns transaction options able to sign for account.
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)

	// CanSign reports whether Signer can succeed for account.
	CanSign(account common.Address) bool

	// Network reports the chain the wallet is connected to.
	Network(ctx context.Context) (entity.NetworkInfo, error)
}

// NetworkConnection is the handle a session owns between connect and disconnect.
type NetworkConnection interface {
	Wallet() WalletProvider
	Contracts() ContractSet
	Close()
}

// Connector opens network connections.
type Connector interface {
	Connect(ctx context.Context) (NetworkConnection, error)
}
