package walletloader

import (
	"bufio"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keyring is the set of accounts a wallet can present. Accounts with a key can
// sign; the rest are watch-only.
type Keyring struct {
	accounts []common.Address
	keys     map[common.Address]*ecdsa.PrivateKey
}

// NewKeyring builds a keyring from signing keys followed by watch-only addresses.
// Duplicates are dropped, keeping the first position.
func NewKeyring(keys []*ecdsa.PrivateKey, watch []common.Address) *Keyring {
	k := &Keyring{keys: make(map[common.Address]*ecdsa.PrivateKey)}
	for _, key := range keys {
		addr := crypto.PubkeyToAddress(key.PublicKey)
		if _, dup := k.keys[addr]; dup {
			continue
		}
		k.keys[addr] = key
		k.accounts = append(k.accounts, addr)
	}
	for _, addr := range watch {
		if k.contains(addr) {
			continue
		}
		k.accounts = append(k.accounts, addr)
	}
	return k
}

func (k *Keyring) contains(addr common.Address) bool {
	for _, a := range k.accounts {
		if a == addr {
			return true
		}
	}
	return false
}

// Accounts returns a copy of the account list, default account first.
func (k *Keyring) Accounts() []common.Address {
	return append([]common.Address(nil), k.accounts...)
}

// PrivateKey returns the signing key for addr, if any.
func (k *Keyring) PrivateKey(addr common.Address) (*ecdsa.PrivateKey, bool) {
	key, ok := k.keys[addr]
	return key, ok
}

// CanSign reports whether addr has a signing key.
func (k *Keyring) CanSign(addr common.Address) bool {
	_, ok := k.keys[addr]
	return ok
}

// WalletFileLoader assembles a Keyring from the environment, a key file and the
// configured watch address.
type WalletFileLoader struct {
	cfg    configloader.WalletConfig
	logger port.Logger
}

// NewWalletFileLoader creates a new WalletFileLoader.
func NewWalletFileLoader(cfg configloader.WalletConfig, logger port.Logger) *WalletFileLoader {
	return &WalletFileLoader{cfg: cfg, logger: logger}
}

// Load reads every configured source. A missing key file is an error only when
// one is configured; an empty keyring is not an error here.
func (l *WalletFileLoader) Load() (*Keyring, error) {
	var keys []*ecdsa.PrivateKey
	var watch []common.Address

	if l.cfg.PrivateKeyEnv != "" {
		if raw := strings.TrimSpace(os.Getenv(l.cfg.PrivateKeyEnv)); raw != "" {
			key, err := parseKey(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid private key in $%s: %w", l.cfg.PrivateKeyEnv, err)
			}
			keys = append(keys, key)
		}
	}

	if l.cfg.KeyFile != "" {
		fileKeys, fileWatch, err := l.readFile(l.cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		keys = append(keys, fileKeys...)
		watch = append(watch, fileWatch...)
	}

	if l.cfg.WatchAddress != "" {
		watch = append(watch, common.HexToAddress(l.cfg.WatchAddress))
	}

	ring := NewKeyring(keys, watch)
	l.logger.Info("Wallet accounts loaded", "signing", len(ring.keys), "total", len(ring.accounts))
	return ring, nil
}

// readFile parses one entry per line: a 0x-prefixed address is watch-only,
// anything else must be a hex private key. Blank lines and # comments are skipped.
func (l *WalletFileLoader) readFile(path string) ([]*ecdsa.PrivateKey, []common.Address, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open wallet file %s: %w", path, err)
	}
	defer file.Close()

	var keys []*ecdsa.PrivateKey
	var watch []common.Address
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) == 42 && utils.IsValidAddress(line) {
			watch = append(watch, common.HexToAddress(line))
			continue
		}
		key, err := parseKey(line)
		if err != nil {
			l.logger.Warn("Skipping invalid wallet entry", "file", path, "line_number", lineNum)
			continue
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error scanning wallet file %s: %w", path, err)
	}
	return keys, watch, nil
}

func parseKey(raw string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
}
