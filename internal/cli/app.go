package cli

import (
	"fmt"

	"jpeg_swap/internal/app/service"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/abiloader"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/infrastructure/httpclient"
	clientprovider "jpeg_swap/internal/infrastructure/network/client"
	networkdefinition "jpeg_swap/internal/infrastructure/network/definition"
	"jpeg_swap/internal/infrastructure/walletloader"
	"jpeg_swap/internal/pkg/logger"

	"go.uber.org/zap"
)

type dashboardApp struct {
	session *service.Session
	network entity.NetworkDefinition
}

// newApp wires configuration, contracts, wallet and metadata into a disconnected session.
func newApp(cfg *configloader.Config, zl *zap.Logger) (*dashboardApp, error) {
	netDefs := networkdefinition.NewNetworkDefinitionProvider(logger.NewSlogAdapter("networkdefinition"))
	netDef, err := netDefs.Resolve(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("resolve network: %w", err)
	}

	abis, err := abiloader.NewABILoader(cfg.Contracts.ABIDir, logger.NewSlogAdapter("abiloader")).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load contract ABIs: %w", err)
	}

	keyring, err := walletloader.NewWalletFileLoader(cfg.Wallet, logger.NewSlogAdapter("walletloader")).Load()
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	connector := clientprovider.NewEVMConnector(clientprovider.ConnectorOptions{
		Network:           netDef,
		ABIs:              abis,
		Contracts:         cfg.ContractAddresses(),
		Keyring:           keyring,
		Names:             netDefs,
		ConnectionTimeout: cfg.ConnectionTimeout(),
		RPCCallTimeout:    cfg.RPCCallTimeout(),
	}, logger.NewSlogAdapter("connector"))

	metadata := httpclient.NewMetadataClient(httpclient.MetadataClientOptions{
		Timeout:           cfg.MetadataTimeout(),
		CacheTTL:          cfg.MetadataCacheTTL(),
		RequestsPerSecond: cfg.Metadata.RequestsPerSecond,
		Burst:             cfg.Metadata.Burst,
	}, zl)

	queryLogger := logger.NewSlogAdapter("queries")
	sessionLogger := logger.NewSlogAdapter("session")
	session := service.NewSession(cfg, service.SessionDeps{
		Connector: connector,
		Pools:     service.NewPoolService(cfg, metadata, queryLogger),
		Staking:   service.NewStakingService(cfg, metadata, queryLogger),
		Actions:   service.NewActionService(cfg, logger.NewSlogAdapter("actions")),
		Logger:    sessionLogger,
		OnTransition: func(surface string, from, to entity.CommandState) {
			sessionLogger.Debug("Surface state changed", "surface", surface, "from", from.String(), "to", to.String())
		},
	})
	return &dashboardApp{session: session, network: netDef}, nil
}
