package abiloader

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jpeg_swap/internal/app/port"

	"github.com/ethereum/go-ethereum/accounts/abi"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed abis/*.json
var embedded embed.FS

// Kind names one of the contract interfaces the dashboard talks to.
type Kind string

const (
	KindSwapPool         Kind = "SwapPool"
	KindFactory          Kind = "SwapPoolFactory"
	KindStonerPool       Kind = "StonerFeePool"
	KindStakeReceipt     Kind = "StakeReceipt"
	KindERC721Enumerable Kind = "ERC721Enumerable"
)

// Kinds lists every kind in load order.
var Kinds = []Kind{KindSwapPool, KindFactory, KindStonerPool, KindStakeReceipt, KindERC721Enumerable}

// requiredMembers must be present in an ABI of the given kind, override or not.
var requiredMembers = map[Kind][]string{
	KindSwapPool:         {"nftCollection", "swapFeeInWei", "swapNFT", "stakeNFT"},
	KindFactory:          {"getAllPools", "owner", "createPool", "event:PoolCreated"},
	KindStonerPool:       {"totalStaked", "stakedTokens", "rewards", "totalRewardsClaimed", "stake", "unstake", "claimNative"},
	KindStakeReceipt:     {"balanceOf", "tokenOfOwnerByIndex", "tokenURI"},
	KindERC721Enumerable: {"balanceOf", "tokenOfOwnerByIndex", "tokenURI", "ownerOf", "approve", "setApprovalForAll"},
}

// Set holds one parsed ABI per kind.
type Set struct {
	SwapPool     abi.ABI
	Factory      abi.ABI
	StonerPool   abi.ABI
	StakeReceipt abi.ABI
	ERC721       abi.ABI
}

// ABILoader reads contract ABIs, preferring <dir>/<Kind>ABI.json over the embedded copies.
type ABILoader struct {
	dir    string
	logger port.Logger
}

// NewABILoader creates a loader. An empty dir means embedded ABIs only.
func NewABILoader(dir string, logger port.Logger) *ABILoader {
	return &ABILoader{dir: dir, logger: logger}
}

// LoadAll parses every kind into a Set.
func (l *ABILoader) LoadAll() (Set, error) {
	var set Set
	targets := map[Kind]*abi.ABI{
		KindSwapPool:         &set.SwapPool,
		KindFactory:          &set.Factory,
		KindStonerPool:       &set.StonerPool,
		KindStakeReceipt:     &set.StakeReceipt,
		KindERC721Enumerable: &set.ERC721,
	}
	for _, kind := range Kinds {
		parsed, err := l.Load(kind)
		if err != nil {
			return Set{}, err
		}
		*targets[kind] = parsed
	}
	return set, nil
}

// Load parses a single kind.
func (l *ABILoader) Load(kind Kind) (abi.ABI, error) {
	raw, source, err := l.read(kind)
	if err != nil {
		return abi.ABI{}, err
	}

	parsed, err := parse(raw)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s ABI from %s: %w", kind, source, err)
	}
	if err := checkMembers(kind, parsed); err != nil {
		return abi.ABI{}, fmt.Errorf("%s ABI from %s: %w", kind, source, err)
	}

	l.logger.Debug("Loaded contract ABI", "kind", kind, "source", source,
		"methods", len(parsed.Methods), "events", len(parsed.Events))
	return parsed, nil
}

func (l *ABILoader) read(kind Kind) ([]byte, string, error) {
	if l.dir != "" {
		path := filepath.Join(l.dir, string(kind)+"ABI.json")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return data, path, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("failed to read ABI file %s: %w", path, err)
		}
	}

	name := "abis/" + string(kind) + ".json"
	data, err := embedded.ReadFile(name)
	if err != nil {
		return nil, "", fmt.Errorf("no embedded ABI for %s: %w", kind, err)
	}
	return data, "embedded:" + name, nil
}

// parse accepts either a bare ABI array or a build artifact with an "abi" field.
func parse(raw []byte) (abi.ABI, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var artifact struct {
			ABI jsoniter.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(trimmed, &artifact); err != nil {
			return abi.ABI{}, err
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, errors.New(`artifact has no "abi" field`)
		}
		trimmed = artifact.ABI
	}
	return abi.JSON(bytes.NewReader(trimmed))
}

func checkMembers(kind Kind, parsed abi.ABI) error {
	var missing []string
	for _, member := range requiredMembers[kind] {
		if name, ok := strings.CutPrefix(member, "event:"); ok {
			if _, found := parsed.Events[name]; !found {
				missing = append(missing, member)
			}
			continue
		}
		if _, found := parsed.Methods[member]; !found {
			missing = append(missing, member)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing members %v", missing)
	}
	return nil
}
