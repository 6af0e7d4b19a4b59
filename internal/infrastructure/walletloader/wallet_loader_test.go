package walletloader

import (
	"os"
	"path/filepath"
	"testing"

	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKeyA = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	testKeyB = "8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a"
	watchHex = "0x1111111111111111111111111111111111111111"
)

func TestLoad_AllSources(t *testing.T) {
	dir := t.TempDir()
	content := "# keys\n0x" + testKeyB + "\n\nnot-a-key\n" + watchHex + "\n"
	path := filepath.Join(dir, "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TEST_WALLET_KEY", testKeyA)

	ring, err := NewWalletFileLoader(configloader.WalletConfig{
		KeyFile:       path,
		PrivateKeyEnv: "TEST_WALLET_KEY",
		WatchAddress:  watchHex,
	}, logger.NewNop()).Load()
	require.NoError(t, err)

	keyA, _ := crypto.HexToECDSA(testKeyA)
	keyB, _ := crypto.HexToECDSA(testKeyB)
	want := []common.Address{
		crypto.PubkeyToAddress(keyA.PublicKey),
		crypto.PubkeyToAddress(keyB.PublicKey),
		common.HexToAddress(watchHex),
	}
	assert.Equal(t, want, ring.Accounts())
	assert.True(t, ring.CanSign(want[0]))
	assert.True(t, ring.CanSign(want[1]))
	assert.False(t, ring.CanSign(want[2]))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewWalletFileLoader(configloader.WalletConfig{KeyFile: "/does/not/exist"}, logger.NewNop()).Load()
	assert.Error(t, err)
}

func TestLoad_BadEnvKey(t *testing.T) {
	t.Setenv("TEST_WALLET_KEY", "zz")
	_, err := NewWalletFileLoader(configloader.WalletConfig{PrivateKeyEnv: "TEST_WALLET_KEY"}, logger.NewNop()).Load()
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	ring, err := NewWalletFileLoader(configloader.WalletConfig{PrivateKeyEnv: "UNSET_WALLET_KEY_VAR"}, logger.NewNop()).Load()
	require.NoError(t, err)
	assert.Empty(t, ring.Accounts())
}
