package client

import (
	"context"
	"fmt"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/abiloader"
	"jpeg_swap/internal/infrastructure/walletloader"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ConnectorOptions configures an EVMConnector.
type ConnectorOptions struct {
	Network           entity.NetworkDefinition
	ABIs              abiloader.Set
	Contracts         entity.ContractAddresses
	Keyring           *walletloader.Keyring
	Names             NetworkNamer
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
}

// EVMConnector implements port.Connector by dialing the configured RPC endpoints in order.
type EVMConnector struct {
	opts   ConnectorOptions
	logger port.Logger
}

var _ port.Connector = (*EVMConnector)(nil)

// NewEVMConnector creates a new EVMConnector.
func NewEVMConnector(opts ConnectorOptions, logger port.Logger) *EVMConnector {
	return &EVMConnector{opts: opts, logger: logger}
}

// Connect dials the primary RPC URL, then each fallback, and returns the first
// connection that answers eth_chainId. HTTP dials do no I/O, so the chain id
// call is what proves a node is reachable.
func (c *EVMConnector) Connect(ctx context.Context) (port.NetworkConnection, error) {
	netDef := c.opts.Network
	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		if rpcURL == "" {
			continue
		}
		ethClient, err := c.dial(ctx, rpcURL)
		if err != nil {
			c.logger.Warn("RPC connection attempt failed", "rpc", rpcURL, "error", err)
			lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
			continue
		}

		c.logger.Info("Connected to RPC", "network", netDef.Name, "rpc", rpcURL)
		return &evmConnection{
			client:    ethClient,
			wallet:    NewKeyedWallet(ethClient, c.opts.Keyring, c.opts.Names, c.opts.RPCCallTimeout),
			contracts: NewEVMContracts(ethClient, c.opts.ABIs, c.opts.Contracts, c.opts.RPCCallTimeout),
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC URL configured for network %s", netDef.Name)
	}
	return nil, &entity.ConnectionError{Reason: "all RPC connection attempts failed for network " + netDef.Name, Err: lastErr}
}

func (c *EVMConnector) dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	dialCtx := ctx
	if c.opts.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.opts.ConnectionTimeout)
		defer cancel()
	}

	ethClient, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, err
	}
	if _, err := ethClient.ChainID(dialCtx); err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return ethClient, nil
}

type evmConnection struct {
	client    *ethclient.Client
	wallet    *KeyedWallet
	contracts *EVMContracts
}

func (c *evmConnection) Wallet() port.WalletProvider { return c.wallet }
func (c *evmConnection) Contracts() port.ContractSet { return c.contracts }
func (c *evmConnection) Close()                      { c.client.Close() }
