package configloader

import (
	"errors"
	"fmt"
	"os"
	"time"

	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/pkg/utils"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// NetworkConfig is the chain the dashboard targets.
type NetworkConfig struct {
	ID              uint64   `yaml:"id"`
	Name            string   `yaml:"name"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"`
}

// ContractsConfig holds the deployed contract addresses.
type ContractsConfig struct {
	FactoryAddress      string `yaml:"factoryAddress"`
	StonerPoolAddress   string `yaml:"stonerPoolAddress"`
	StakeReceiptAddress string `yaml:"stakeReceiptAddress"`
	ABIDir              string `yaml:"abiDir"`
}

// WalletConfig says where signing keys and watch-only addresses come from.
type WalletConfig struct {
	KeyFile       string `yaml:"keyFile"`
	PrivateKeyEnv string `yaml:"privateKeyEnv"`
	WatchAddress  string `yaml:"watchAddress"`
}

// MetadataConfig holds token metadata fetching configuration.
type MetadataConfig struct {
	IPFSGateway          string  `yaml:"ipfsGateway"`
	DefaultImage         string  `yaml:"defaultImage"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	CacheTTLMinutes      int     `yaml:"cacheTTLMinutes"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
	MaxConcurrentFetches int     `yaml:"maxConcurrentFetches"`
	MaxTokensPerQuery    int     `yaml:"maxTokensPerQuery"`
}

// RefreshConfig controls the periodic refresh of visible views.
type RefreshConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	RPCCallTimeoutSeconds    int `yaml:"rpc_call_timeout_seconds"`
	ConnectionTimeoutSeconds int `yaml:"connection_timeout_seconds"`
}

// Config is the top-level configuration structure. It is read once at startup
// and must not be mutated afterwards.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Network     NetworkConfig     `yaml:"network"`
	Contracts   ContractsConfig   `yaml:"contracts"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Metadata    MetadataConfig    `yaml:"metadata"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Performance PerformanceConfig `yaml:"performance"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
// Environment variables referenced as ${VAR} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals raw YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Network.ID == 0 {
		c.Network.ID = 146
	}
	if c.Network.Name == "" {
		c.Network.Name = "Sonic"
	}
	if c.Contracts.ABIDir == "" {
		c.Contracts.ABIDir = "contracts"
	}
	if c.Wallet.PrivateKeyEnv == "" {
		c.Wallet.PrivateKeyEnv = "JPEG_SWAP_PRIVATE_KEY"
	}

	if c.Metadata.IPFSGateway == "" {
		c.Metadata.IPFSGateway = utils.DefaultIPFSGateway
	}
	if c.Metadata.DefaultImage == "" {
		c.Metadata.DefaultImage = "/logo192.png"
	}
	if c.Metadata.RequestTimeoutMillis <= 0 {
		c.Metadata.RequestTimeoutMillis = 10000
	}
	if c.Metadata.CacheTTLMinutes <= 0 {
		c.Metadata.CacheTTLMinutes = 60
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		c.Metadata.RequestsPerSecond = 5
	}
	if c.Metadata.Burst <= 0 {
		c.Metadata.Burst = 5
	}
	if c.Metadata.MaxConcurrentFetches <= 0 {
		c.Metadata.MaxConcurrentFetches = 4
	}
	if c.Metadata.MaxTokensPerQuery <= 0 {
		c.Metadata.MaxTokensPerQuery = 500
	}

	if c.Refresh.IntervalSeconds <= 0 {
		c.Refresh.IntervalSeconds = 30
	}
	if c.Performance.RPCCallTimeoutSeconds <= 0 {
		c.Performance.RPCCallTimeoutSeconds = 10
	}
	if c.Performance.ConnectionTimeoutSeconds <= 0 {
		c.Performance.ConnectionTimeoutSeconds = 10
	}
}

// Validate checks the contract addresses and network settings.
func (c *Config) Validate() error {
	var errs []error
	check := func(field, value string) {
		if !utils.IsValidAddress(value) {
			errs = append(errs, fmt.Errorf("%s: invalid address %q", field, value))
		}
	}
	check("contracts.factoryAddress", c.Contracts.FactoryAddress)
	check("contracts.stonerPoolAddress", c.Contracts.StonerPoolAddress)
	check("contracts.stakeReceiptAddress", c.Contracts.StakeReceiptAddress)
	if c.Wallet.WatchAddress != "" {
		check("wallet.watchAddress", c.Wallet.WatchAddress)
	}
	if c.Network.ID == 0 {
		errs = append(errs, errors.New("network.id must be set"))
	}
	return errors.Join(errs...)
}

// ContractAddresses returns the configured contract addresses.
func (c *Config) ContractAddresses() entity.ContractAddresses {
	return entity.ContractAddresses{
		Factory:      c.Contracts.FactoryAddress,
		StonerPool:   c.Contracts.StonerPoolAddress,
		StakeReceipt: c.Contracts.StakeReceiptAddress,
	}
}

// RefreshInterval is the scheduler period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalSeconds) * time.Second
}

// RPCCallTimeout bounds a single contract call.
func (c *Config) RPCCallTimeout() time.Duration {
	return time.Duration(c.Performance.RPCCallTimeoutSeconds) * time.Second
}

// ConnectionTimeout bounds dialing a single RPC URL.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.Performance.ConnectionTimeoutSeconds) * time.Second
}

// MetadataTimeout bounds a single metadata request.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.Metadata.RequestTimeoutMillis) * time.Millisecond
}

// MetadataCacheTTL is how long fetched metadata is reused.
func (c *Config) MetadataCacheTTL() time.Duration {
	return time.Duration(c.Metadata.CacheTTLMinutes) * time.Minute
}
