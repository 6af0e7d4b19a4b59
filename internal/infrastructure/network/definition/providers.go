package networkdefinition

import (
	"fmt"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger         port.Logger
	allNetworkDefs map[uint64]entity.NetworkDefinition
}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Sonic = entity.NetworkDefinition{
		ChainID:          146,
		Name:             "Sonic",
		Identifier:       "sonic",
		NativeSymbol:     "S",
		Decimals:         18,
		PrimaryRPCURL:    "https://rpc.soniclabs.com",
		FallbackRPCURLs:  []string{"https://sonic.drpc.org", "https://sonic-rpc.publicnode.com"},
		BlockExplorerURL: "https://sonicscan.org",
	}
	SonicBlaze = entity.NetworkDefinition{
		ChainID:          57054,
		Name:             "Sonic Blaze Testnet",
		Identifier:       "sonic_blaze",
		NativeSymbol:     "S",
		Decimals:         18,
		PrimaryRPCURL:    "https://rpc.blaze.soniclabs.com",
		FallbackRPCURLs:  []string{},
		BlockExplorerURL: "https://testnet.sonicscan.org",
	}
	Fantom = entity.NetworkDefinition{
		ChainID:          250,
		Name:             "Fantom Opera",
		Identifier:       "fantom",
		NativeSymbol:     "FTM",
		Decimals:         18,
		PrimaryRPCURL:    "https://rpcapi.fantom.network",
		FallbackRPCURLs:  []string{"https://fantom.publicnode.com"},
		BlockExplorerURL: "https://ftmscan.com",
	}
	Ethereum = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL: "https://etherscan.io",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = map[uint64]entity.NetworkDefinition{
	Sonic.ChainID:      Sonic,
	SonicBlaze.ChainID: SonicBlaze,
	Fantom.ChainID:     Fantom,
	Ethereum.ChainID:   Ethereum,
}

// NewNetworkDefinitionProvider creates a new NetworkDefinitionProvider.
func NewNetworkDefinitionProvider(log port.Logger) *NetworkDefinitionProvider {
	return &NetworkDefinitionProvider{
		logger:         log,
		allNetworkDefs: allKnownDefinitions,
	}
}

// GetNetworkDefinitionByChainID returns the known definition for chainID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.allNetworkDefs[chainID]
	return def, ok
}

// NetworkName names chainID, falling back to "chain <id>" for unknown chains.
func (p *NetworkDefinitionProvider) NetworkName(chainID uint64) string {
	if def, ok := p.GetNetworkDefinitionByChainID(chainID); ok {
		return def.Name
	}
	return fmt.Sprintf("chain %d", chainID)
}

// Resolve merges the configured network with the known definition for the same chain.
// Configured RPC URLs win; the known ones are used when none are configured.
func (p *NetworkDefinitionProvider) Resolve(cfg configloader.NetworkConfig) (entity.NetworkDefinition, error) {
	def, known := p.GetNetworkDefinitionByChainID(cfg.ID)
	if !known {
		def = entity.NetworkDefinition{ChainID: cfg.ID, Identifier: fmt.Sprintf("chain_%d", cfg.ID), Decimals: 18}
	}
	if cfg.Name != "" {
		def.Name = cfg.Name
	}
	if cfg.RPCURL != "" {
		def.PrimaryRPCURL = cfg.RPCURL
		def.FallbackRPCURLs = append([]string(nil), cfg.FallbackRPCURLs...)
	}

	if def.PrimaryRPCURL == "" {
		return entity.NetworkDefinition{}, fmt.Errorf("no RPC URL configured for chain %d", cfg.ID)
	}
	p.logger.Debug("Resolved network definition",
		"chain_id", def.ChainID, "name", def.Name, "rpc_primary", def.PrimaryRPCURL, "fallbacks", len(def.FallbackRPCURLs))
	return def, nil
}
