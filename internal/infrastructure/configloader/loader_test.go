package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
network:
  id: 146
  name: Sonic
  rpcURL: https://rpc.soniclabs.com
contracts:
  factoryAddress: "0x1111111111111111111111111111111111111111"
  stonerPoolAddress: "0x2222222222222222222222222222222222222222"
  stakeReceiptAddress: "0x3333333333333333333333333333333333333333"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, uint64(146), cfg.Network.ID)
	assert.Equal(t, "https://ipfs.io/ipfs/", cfg.Metadata.IPFSGateway)
	assert.Equal(t, "/logo192.png", cfg.Metadata.DefaultImage)
	assert.Equal(t, 4, cfg.Metadata.MaxConcurrentFetches)
	assert.Equal(t, 500, cfg.Metadata.MaxTokensPerQuery)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 10*time.Second, cfg.RPCCallTimeout())
	assert.Equal(t, 10*time.Second, cfg.MetadataTimeout())
	assert.Equal(t, time.Hour, cfg.MetadataCacheTTL())
	assert.Equal(t, "JPEG_SWAP_PRIVATE_KEY", cfg.Wallet.PrivateKeyEnv)

	addrs := cfg.ContractAddresses()
	assert.Equal(t, "0x1111111111111111111111111111111111111111", addrs.Factory)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", addrs.StakeReceipt)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_FACTORY", "0x4444444444444444444444444444444444444444")
	data := `
contracts:
  factoryAddress: "${TEST_FACTORY}"
  stonerPoolAddress: "0x2222222222222222222222222222222222222222"
  stakeReceiptAddress: "0x3333333333333333333333333333333333333333"
refresh:
  intervalSeconds: 5
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", cfg.Contracts.FactoryAddress)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval())
}

func TestParse_RejectsBadAddresses(t *testing.T) {
	data := `
contracts:
  factoryAddress: "0x123"
  stonerPoolAddress: "0x2222222222222222222222222222222222222222"
  stakeReceiptAddress: ""
wallet:
  watchAddress: "nope"
`
	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contracts.factoryAddress")
	assert.Contains(t, err.Error(), "contracts.stakeReceiptAddress")
	assert.Contains(t, err.Error(), "wallet.watchAddress")
	assert.NotContains(t, err.Error(), "contracts.stonerPoolAddress")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.soniclabs.com", cfg.Network.RPCURL)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
