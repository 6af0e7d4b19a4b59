package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	factoryAddr    = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	stonerAddr     = common.HexToAddress("0x00000000000000000000000000000000000000F2")
	receiptAddr    = common.HexToAddress("0x00000000000000000000000000000000000000F3")
	pool1          = common.HexToAddress("0x0000000000000000000000000000000000000A01")
	pool2          = common.HexToAddress("0x0000000000000000000000000000000000000A02")
	pool3          = common.HexToAddress("0x0000000000000000000000000000000000000A03")
	collectionAddr = common.HexToAddress("0x0000000000000000000000000000000000000B01")
	userAddr       = common.HexToAddress("0x0000000000000000000000000000000000000C01")
	otherUser      = common.HexToAddress("0x0000000000000000000000000000000000000C02")

	poolCreatedTopic = crypto.Keccak256Hash([]byte("PoolCreated(address,address)"))
)

func testConfig(t *testing.T) *configloader.Config {
	t.Helper()
	cfg, err := configloader.Parse([]byte(fmt.Sprintf(`
network:
  id: 146
  name: Sonic
contracts:
  factoryAddress: "%s"
  stonerPoolAddress: "%s"
  stakeReceiptAddress: "%s"
metadata:
  maxConcurrentFetches: 4
`, factoryAddr.Hex(), stonerAddr.Hex(), receiptAddr.Hex())))
	require.NoError(t, err)
	return cfg
}

func ids(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

// fakeChain is an in-memory model of the factory, pools, collections and
// staking pool. It implements port.ContractSet.
type fakeChain struct {
	mu sync.Mutex

	nonce    uint64
	receipts map[common.Hash]*types.Receipt
	sent     []string

	factoryOwner common.Address
	pools        []common.Address
	collections  map[common.Address]common.Address
	fees         map[common.Address]*big.Int
	owned        map[common.Address]map[common.Address][]*big.Int
	uris         map[common.Address]map[string]string

	totalStaked int64
	staked      map[common.Address][]*big.Int
	rewards     map[common.Address]*big.Int
	claimed     *big.Int

	failReads   map[string]error
	failSends   map[string]error
	revertSends map[string]bool
	omitEvent   bool

	swapValue  *big.Int
	createArgs port.CreatePoolArgs
	nextPool   common.Address
	readHook   func(method string)
}

func newFakeChain() *fakeChain {
	c := &fakeChain{
		receipts:    make(map[common.Hash]*types.Receipt),
		collections: make(map[common.Address]common.Address),
		fees:        make(map[common.Address]*big.Int),
		owned:       make(map[common.Address]map[common.Address][]*big.Int),
		uris:        make(map[common.Address]map[string]string),
		staked:      make(map[common.Address][]*big.Int),
		rewards:     make(map[common.Address]*big.Int),
		claimed:     big.NewInt(0),
		failReads:   make(map[string]error),
		failSends:   make(map[string]error),
		revertSends: make(map[string]bool),
		nextPool:    common.HexToAddress("0x0000000000000000000000000000000000000A99"),
	}
	return c
}

func (c *fakeChain) addPool(pool, collection common.Address, feeWei int64) {
	c.pools = append(c.pools, pool)
	c.collections[pool] = collection
	c.fees[pool] = big.NewInt(feeWei)
}

func (c *fakeChain) give(collection, owner common.Address, tokens ...*big.Int) {
	if c.owned[collection] == nil {
		c.owned[collection] = make(map[common.Address][]*big.Int)
	}
	c.owned[collection][owner] = append(c.owned[collection][owner], tokens...)
}

func (c *fakeChain) setURI(collection common.Address, tokenID int64, uri string) {
	if c.uris[collection] == nil {
		c.uris[collection] = make(map[string]string)
	}
	c.uris[collection][big.NewInt(tokenID).String()] = uri
}

func (c *fakeChain) read(key string) error {
	c.mu.Lock()
	hook := c.readHook
	err := c.failReads[key]
	c.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	return err
}

func (c *fakeChain) sentMethods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeChain) send(method string, effect func() []*types.Log) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failSends[method]; err != nil {
		return nil, err
	}
	c.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: c.nonce, Data: []byte(method)})
	c.sent = append(c.sent, method)

	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}
	if c.revertSends[method] {
		receipt.Status = types.ReceiptStatusFailed
	} else if effect != nil {
		receipt.Logs = effect()
	}
	c.receipts[tx.Hash()] = receipt
	return tx, nil
}

func (c *fakeChain) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[tx.Hash()]
	if !ok {
		return nil, errors.New("unknown transaction")
	}
	return receipt, nil
}

func (c *fakeChain) Factory() port.Factory                  { return &fakeFactory{c} }
func (c *fakeChain) StakingPool() port.StakingPool          { return &fakeStaking{c} }
func (c *fakeChain) StakeReceipt() port.EnumerableOwnership { return &fakeCollection{c, receiptAddr} }
func (c *fakeChain) SwapPool(addr common.Address) port.SwapPool {
	return &fakeSwapPool{c, addr}
}
func (c *fakeChain) Collection(addr common.Address) port.NFTCollection {
	return &fakeCollection{c, addr}
}

type fakeCollection struct {
	c    *fakeChain
	addr common.Address
}

func (f *fakeCollection) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	if err := f.c.read("balanceOf:" + f.addr.Hex()); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return big.NewInt(int64(len(f.c.owned[f.addr][owner]))), nil
}

func (f *fakeCollection) TokenOfOwnerByIndex(_ context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	if err := f.c.read(fmt.Sprintf("tokenOfOwnerByIndex:%s", index)); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	tokens := f.c.owned[f.addr][owner]
	i := int(index.Int64())
	if i >= len(tokens) {
		return nil, errors.New("execution reverted: index out of bounds")
	}
	return new(big.Int).Set(tokens[i]), nil
}

func (f *fakeCollection) TokenURI(_ context.Context, tokenID *big.Int) (string, error) {
	if err := f.c.read("tokenURI:" + tokenID.String()); err != nil {
		return "", err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return f.c.uris[f.addr][tokenID.String()], nil
}

func (f *fakeCollection) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	for owner, tokens := range f.c.owned[f.addr] {
		for _, t := range tokens {
			if t.Cmp(tokenID) == 0 {
				return owner, nil
			}
		}
	}
	return common.Address{}, errors.New("execution reverted: nonexistent token")
}

func (f *fakeCollection) Approve(_ *bind.TransactOpts, _ common.Address, _ *big.Int) (*types.Transaction, error) {
	return f.c.send("approve", nil)
}

func (f *fakeCollection) SetApprovalForAll(_ *bind.TransactOpts, _ common.Address, _ bool) (*types.Transaction, error) {
	return f.c.send("setApprovalForAll", nil)
}

type fakeSwapPool struct {
	c    *fakeChain
	addr common.Address
}

func (f *fakeSwapPool) NFTCollection(_ context.Context) (common.Address, error) {
	if err := f.c.read("nftCollection:" + f.addr.Hex()); err != nil {
		return common.Address{}, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	collection, ok := f.c.collections[f.addr]
	if !ok {
		return common.Address{}, errors.New("execution reverted")
	}
	return collection, nil
}

func (f *fakeSwapPool) SwapFeeInWei(_ context.Context) (*big.Int, error) {
	if err := f.c.read("swapFeeInWei"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return new(big.Int).Set(f.c.fees[f.addr]), nil
}

func (f *fakeSwapPool) SwapNFT(opts *bind.TransactOpts, _, _ *big.Int) (*types.Transaction, error) {
	return f.c.send("swapNFT", func() []*types.Log {
		f.c.swapValue = opts.Value
		return nil
	})
}

func (f *fakeSwapPool) StakeNFT(_ *bind.TransactOpts, _ *big.Int) (*types.Transaction, error) {
	return f.c.send("stakeNFT", nil)
}

type fakeFactory struct{ c *fakeChain }

func (f *fakeFactory) GetAllPools(_ context.Context) ([]common.Address, error) {
	if err := f.c.read("getAllPools"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return append([]common.Address(nil), f.c.pools...), nil
}

func (f *fakeFactory) Owner(_ context.Context) (common.Address, error) {
	if err := f.c.read("owner"); err != nil {
		return common.Address{}, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return f.c.factoryOwner, nil
}

func (f *fakeFactory) CreatePool(_ *bind.TransactOpts, args port.CreatePoolArgs) (*types.Transaction, error) {
	return f.c.send("createPool", func() []*types.Log {
		f.c.createArgs = args
		f.c.pools = append(f.c.pools, f.c.nextPool)
		f.c.collections[f.c.nextPool] = args.NFTCollection
		if f.c.omitEvent {
			return nil
		}
		return []*types.Log{{
			Address: factoryAddr,
			Topics: []common.Hash{
				poolCreatedTopic,
				common.BytesToHash(f.c.nextPool.Bytes()),
				common.BytesToHash(args.NFTCollection.Bytes()),
			},
		}}
	})
}

func (f *fakeFactory) ParsePoolCreated(log types.Log) (common.Address, error) {
	if len(log.Topics) != 3 || log.Topics[0] != poolCreatedTopic {
		return common.Address{}, errors.New("event signature mismatch")
	}
	return common.BytesToAddress(log.Topics[1].Bytes()), nil
}

type fakeStaking struct{ c *fakeChain }

func (f *fakeStaking) TotalStaked(_ context.Context) (*big.Int, error) {
	if err := f.c.read("totalStaked"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return big.NewInt(f.c.totalStaked), nil
}

func (f *fakeStaking) StakedTokens(_ context.Context, account common.Address) ([]*big.Int, error) {
	if err := f.c.read("stakedTokens"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return append([]*big.Int(nil), f.c.staked[account]...), nil
}

func (f *fakeStaking) Rewards(_ context.Context, account common.Address) (*big.Int, error) {
	if err := f.c.read("rewards"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	if r, ok := f.c.rewards[account]; ok {
		return new(big.Int).Set(r), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeStaking) TotalRewardsClaimed(_ context.Context) (*big.Int, error) {
	if err := f.c.read("totalRewardsClaimed"); err != nil {
		return nil, err
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return new(big.Int).Set(f.c.claimed), nil
}

// Stake moves the token into the pool and mints a receipt with the same id.
func (f *fakeStaking) Stake(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return f.c.send("stake", func() []*types.Log {
		f.c.totalStaked++
		f.c.staked[opts.From] = append(f.c.staked[opts.From], tokenID)
		if f.c.owned[receiptAddr] == nil {
			f.c.owned[receiptAddr] = make(map[common.Address][]*big.Int)
		}
		f.c.owned[receiptAddr][opts.From] = append(f.c.owned[receiptAddr][opts.From], tokenID)
		return nil
	})
}

func (f *fakeStaking) Unstake(_ *bind.TransactOpts, _ *big.Int) (*types.Transaction, error) {
	return f.c.send("unstake", nil)
}

func (f *fakeStaking) ClaimNative(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.c.send("claimNative", func() []*types.Log {
		if r, ok := f.c.rewards[opts.From]; ok {
			f.c.claimed.Add(f.c.claimed, r)
			f.c.rewards[opts.From] = big.NewInt(0)
		}
		return nil
	})
}

type fakeWallet struct {
	accounts  []common.Address
	chainID   uint64
	watchOnly map[common.Address]bool
	err       error
}

func (w *fakeWallet) RequestAccounts(context.Context) ([]common.Address, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.accounts, nil
}

func (w *fakeWallet) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if w.watchOnly[account] {
		return nil, errors.New("watch-only")
	}
	return &bind.TransactOpts{From: account, Context: ctx}, nil
}

func (w *fakeWallet) CanSign(account common.Address) bool { return !w.watchOnly[account] }

func (w *fakeWallet) Network(context.Context) (entity.NetworkInfo, error) {
	name := fmt.Sprintf("chain %d", w.chainID)
	if w.chainID == 146 {
		name = "Sonic"
	}
	return entity.NetworkInfo{ChainID: w.chainID, Name: name}, nil
}

type fakeConnection struct {
	wallet    *fakeWallet
	contracts port.ContractSet
	mu        sync.Mutex
	closed    bool
}

func (c *fakeConnection) Wallet() port.WalletProvider { return c.wallet }
func (c *fakeConnection) Contracts() port.ContractSet { return c.contracts }
func (c *fakeConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeConnector struct {
	chain  *fakeChain
	wallet *fakeWallet
	err    error
	// gate, when set, runs before the n-th connection is handed out.
	gate func(n int)

	mu    sync.Mutex
	last  *fakeConnection
	conns []*fakeConnection
}

func (c *fakeConnector) Connect(context.Context) (port.NetworkConnection, error) {
	if c.err != nil {
		return nil, c.err
	}
	conn := &fakeConnection{wallet: c.wallet, contracts: c.chain}
	c.mu.Lock()
	n := len(c.conns)
	c.conns = append(c.conns, conn)
	c.last = conn
	c.mu.Unlock()
	if c.gate != nil {
		c.gate(n)
	}
	return conn, nil
}

func (c *fakeConnector) connections() []*fakeConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeConnection(nil), c.conns...)
}

type fakeMetadata struct {
	mu    sync.Mutex
	docs  map[string]entity.TokenMetadata
	fail  map[string]error
	calls int
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{docs: make(map[string]entity.TokenMetadata), fail: make(map[string]error)}
}

func (m *fakeMetadata) FetchMetadata(_ context.Context, url string) (entity.TokenMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.fail[url]; err != nil {
		return entity.TokenMetadata{}, err
	}
	doc, ok := m.docs[url]
	if !ok {
		return entity.TokenMetadata{}, errors.New("404 not found")
	}
	return doc, nil
}

// transitions records surface state changes.
type transitions struct {
	mu  sync.Mutex
	log []string
}

func (r *transitions) record(surface string, from, to entity.CommandState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, fmt.Sprintf("%s:%s->%s", surface, from, to))
}

func (r *transitions) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

var nopLogger = logger.NewNop()
