package entity

// NetworkDefinition holds the configuration for a specific blockchain network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID          uint64   `json:"chainId" yaml:"chainId"`
	Name             string   `json:"name" yaml:"name"`
	Identifier       string   `json:"identifier" yaml:"identifier"`
	NativeSymbol     string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals         int32    `json:"decimals" yaml:"decimals"`
	PrimaryRPCURL    string   `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// NetworkInfo is what a connected node reports about itself.
type NetworkInfo struct {
	ChainID uint64 `json:"chainId"`
	Name    string `json:"name"`
}

// Connection describes the active session: who is viewing and on which chain.
// The zero value means "not connected".
type Connection struct {
	Connected         bool     `json:"connected"`
	Account           string   `json:"account,omitempty"`
	AccountDisplay    string   `json:"accountDisplay,omitempty"`
	ChainID           uint64   `json:"chainId,omitempty"`
	NetworkName       string   `json:"networkName,omitempty"`
	ExpectedChainID   uint64   `json:"expectedChainId"`
	ExpectedNetwork   string   `json:"expectedNetwork"`
	WrongNetwork      bool     `json:"wrongNetwork"`
	CanSign           bool     `json:"canSign"`
	AutoRefresh       bool     `json:"autoRefresh"`
	AvailableAccounts []string `json:"availableAccounts,omitempty"`
}

// ContractAddresses is the static set of contracts the dashboard talks to.
type ContractAddresses struct {
	Factory      string `json:"factory"`
	StonerPool   string `json:"stonerPool"`
	StakeReceipt string `json:"stakeReceipt"`
}
