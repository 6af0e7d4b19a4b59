package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/app/scheduler"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/infrastructure/configloader"
	"jpeg_swap/internal/pkg/metrics"
	"jpeg_swap/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Session owns the network connection between connect and disconnect, the
// latest view models, the command surfaces and the refresh scheduler.
//
// Every connect, disconnect and account change bumps the generation; query
// results computed under an older generation are discarded.
type Session struct {
	cfg       *configloader.Config
	connector port.Connector
	pools     port.PoolQueries
	staking   port.StakingQueries
	actions   *ActionServiceImpl
	logger    port.Logger

	onTransition TransitionFunc
	stakingPanel *Surface[entity.StakingForm]
	factoryPanel *Surface[entity.FactoryForm]

	baseCtx    context.Context
	baseCancel context.CancelFunc

	// lifecycle serialises Connect, Disconnect and ChangeAccount so at most
	// one connection is ever installed.
	lifecycle sync.Mutex

	mu           sync.RWMutex
	generation   uint64
	conn         port.NetworkConnection
	accounts     []common.Address
	account      common.Address
	connection   entity.Connection
	sched        *scheduler.Scheduler
	poolCards    map[common.Address]*Surface[entity.PoolCardForm]
	selectedPool *common.Address
	inventory    entity.PoolInventory
	poolList     entity.PoolList
	registry     entity.FactoryRegistry
	stats        entity.StakingStats
	receipts     []entity.NFTItem
}

var _ port.Dashboard = (*Session)(nil)

// SessionDeps groups the collaborators of a Session.
type SessionDeps struct {
	Connector    port.Connector
	Pools        port.PoolQueries
	Staking      port.StakingQueries
	Actions      *ActionServiceImpl
	Logger       port.Logger
	OnTransition TransitionFunc
}

// NewSession creates a disconnected session. Close releases it.
func NewSession(cfg *configloader.Config, deps SessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		connector:    deps.Connector,
		pools:        deps.Pools,
		staking:      deps.Staking,
		actions:      deps.Actions,
		logger:       deps.Logger,
		onTransition: deps.OnTransition,
		baseCtx:      ctx,
		baseCancel:   cancel,
		poolCards:    make(map[common.Address]*Surface[entity.PoolCardForm]),
	}
	s.stakingPanel = NewSurface[entity.StakingForm]("staking", s.onTransition)
	s.factoryPanel = NewSurface[entity.FactoryForm]("factory", s.onTransition)
	s.resetViewsLocked()
	s.connection = s.disconnectedState()
	return s
}

// Close disconnects and stops everything the session started.
func (s *Session) Close() {
	s.Disconnect()
	s.baseCancel()
}

// Connect opens a connection, picks the wallet's first account, loads every
// view once and starts the refresh scheduler. A chain id other than the
// configured one is flagged but does not fail the connection.
func (s *Session) Connect(ctx context.Context) (entity.Connection, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.disconnect()

	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return s.Connection(), asConnectionError("failed to reach the network", err)
	}

	wallet := conn.Wallet()
	accounts, err := wallet.RequestAccounts(ctx)
	if err != nil {
		conn.Close()
		return s.Connection(), asConnectionError("failed to request accounts", err)
	}
	if len(accounts) == 0 {
		conn.Close()
		return s.Connection(), &entity.ConnectionError{Reason: "wallet returned no accounts"}
	}

	network, err := wallet.Network(ctx)
	if err != nil {
		conn.Close()
		return s.Connection(), asConnectionError("failed to read network", err)
	}

	wrong := network.ChainID != s.cfg.Network.ID
	if wrong {
		metrics.WrongNetwork.Set(1)
		s.logger.Warn("Connected to unexpected network", "error", &entity.WrongNetworkError{
			Expected: s.cfg.Network.ID, ExpectedName: s.cfg.Network.Name, Actual: network.ChainID,
		})
	} else {
		metrics.WrongNetwork.Set(0)
	}

	s.mu.Lock()
	s.generation++
	s.conn = conn
	s.accounts = accounts
	s.account = accounts[0]
	s.connection = entity.Connection{
		Connected:         true,
		ChainID:           network.ChainID,
		NetworkName:       network.Name,
		ExpectedChainID:   s.cfg.Network.ID,
		ExpectedNetwork:   s.cfg.Network.Name,
		WrongNetwork:      wrong,
		AvailableAccounts: hexAll(accounts),
	}
	s.setAccountLocked(accounts[0], wallet)
	s.mu.Unlock()

	s.logger.Info("Wallet connected", "account", accounts[0].Hex(), "chain_id", network.ChainID, "wrong_network", wrong)
	s.Refresh(ctx)
	s.startScheduler()
	return s.Connection(), nil
}

// Disconnect stops the scheduler, closes the connection and clears every view.
func (s *Session) Disconnect() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.disconnect()
}

func (s *Session) disconnect() {
	s.mu.Lock()
	conn, sched := s.conn, s.sched
	s.generation++
	s.conn = nil
	s.sched = nil
	s.accounts = nil
	s.account = common.Address{}
	s.connection = s.disconnectedState()
	s.resetViewsLocked()
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	if conn != nil {
		conn.Close()
		metrics.WrongNetwork.Set(0)
		s.logger.Info("Wallet disconnected")
	}
}

// ChangeAccount switches to another account of the connected wallet. Views are
// cleared, reloaded for the new account, and the scheduler restarts.
func (s *Session) ChangeAccount(ctx context.Context, account string) (entity.Connection, error) {
	if !utils.IsValidAddress(account) {
		return s.Connection(), fmt.Errorf("%w: %q is not an address", ErrInvalidInput, account)
	}
	target := common.HexToAddress(account)

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return s.Connection(), entity.ErrNotConnected
	}
	known := false
	for _, a := range s.accounts {
		if a == target {
			known = true
			break
		}
	}
	if !known {
		s.mu.Unlock()
		return s.Connection(), fmt.Errorf("%w: account %s is not available in the wallet", ErrInvalidInput, target.Hex())
	}
	sched := s.sched
	s.sched = nil
	s.generation++
	s.resetViewsLocked()
	s.setAccountLocked(target, s.conn.Wallet())
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	s.logger.Info("Account changed", "account", target.Hex())
	s.Refresh(ctx)
	s.startScheduler()
	return s.Connection(), nil
}

// Connection is the banner state.
func (s *Session) Connection() entity.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.connection
	c.AvailableAccounts = append([]string(nil), c.AvailableAccounts...)
	c.AutoRefresh = s.sched != nil && s.sched.Running()
	return c
}

// Refresh re-runs every visible query against the current connection and
// applies the results only if the session has not moved on meanwhile.
func (s *Session) Refresh(ctx context.Context) {
	snap, ok := s.snapshot()
	if !ok {
		return
	}

	var (
		list      entity.PoolList
		registry  entity.FactoryRegistry
		stats     entity.StakingStats
		receipts  []entity.NFTItem
		inventory entity.PoolInventory
	)
	var g errgroup.Group
	g.Go(func() error { list = s.pools.ListPools(ctx, snap.contracts); return nil })
	g.Go(func() error { registry = s.pools.FactoryRegistry(ctx, snap.contracts, snap.account); return nil })
	g.Go(func() error { stats = s.staking.Stats(ctx, snap.contracts, snap.account); return nil })
	g.Go(func() error { receipts = s.staking.Receipts(ctx, snap.contracts, snap.account); return nil })
	if snap.selectedPool != nil {
		g.Go(func() error {
			inventory = s.pools.LoadPool(ctx, snap.contracts, *snap.selectedPool, snap.account)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != snap.generation {
		s.logger.Debug("Discarding stale refresh", "generation", snap.generation, "current", s.generation)
		return
	}
	s.poolList = list
	s.registry = registry
	if stats.Available || !s.stats.Available {
		s.stats = stats
	} else {
		s.logger.Warn("Staking stats unavailable, keeping previous snapshot", "account", snap.account.Hex())
	}
	s.receipts = receipts
	if snap.selectedPool != nil && s.selectedPool != nil && *s.selectedPool == *snap.selectedPool {
		s.inventory = inventory
	}
}

// PoolList is the latest pool list.
func (s *Session) PoolList() entity.PoolList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.poolList
	list.Pools = append([]string{}, list.Pools...)
	return list
}

// SelectPool loads a pool's inventory and makes it part of every later refresh.
func (s *Session) SelectPool(ctx context.Context, address string) (entity.PoolInventory, error) {
	if !utils.IsValidAddress(address) {
		return entity.PoolInventory{}, fmt.Errorf("%w: %q is not an address", ErrInvalidInput, address)
	}
	pool := common.HexToAddress(address)

	snap, ok := s.snapshot()
	if !ok {
		return entity.PoolInventory{}, entity.ErrNotConnected
	}
	inv := s.pools.LoadPool(ctx, snap.contracts, pool, snap.account)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != snap.generation {
		return entity.PoolInventory{}, entity.ErrNotConnected
	}
	s.selectedPool = &pool
	s.inventory = inv
	s.poolCardLocked(pool)
	return inv, nil
}

// FactoryRegistry is the latest factory panel view.
func (s *Session) FactoryRegistry() entity.FactoryRegistry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg := s.registry
	reg.Pools = append([]entity.RegistryEntry{}, reg.Pools...)
	return reg
}

// StakingStats is the latest successful staking snapshot.
func (s *Session) StakingStats() entity.StakingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Receipts is the latest receipt list.
func (s *Session) Receipts() []entity.NFTItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.NFTItem{}, s.receipts...)
}

// SelectedPool is the inventory of the selected pool, if any.
func (s *Session) SelectedPool() (entity.PoolInventory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory, s.selectedPool != nil
}

// StakingForm exposes the staking panel inputs.
func (s *Session) StakingForm() entity.StakingForm { return s.stakingPanel.Form() }

// FactoryForm exposes the pool creation inputs.
func (s *Session) FactoryForm() entity.FactoryForm { return s.factoryPanel.Form() }

// PoolCardForm exposes a pool card's inputs.
func (s *Session) PoolCardForm(pool string) entity.PoolCardForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poolCardLocked(common.HexToAddress(pool)).Form()
}

func (s *Session) Swap(ctx context.Context, pool string, form entity.PoolCardForm) (entity.CommandResult, error) {
	addr, card, sig, err := s.poolCommand(pool)
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandSwap, Message: err.Error()}, err
	}
	res, err := s.actions.Swap(ctx, sig, card, addr, form)
	return s.afterCommand(ctx, res, err)
}

func (s *Session) StakeInPool(ctx context.Context, pool string, tokenID string) (entity.CommandResult, error) {
	addr, card, sig, err := s.poolCommand(pool)
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandStakeInPool, Message: err.Error()}, err
	}
	res, err := s.actions.StakeInPool(ctx, sig, card, addr, tokenID)
	return s.afterCommand(ctx, res, err)
}

func (s *Session) Stake(ctx context.Context, tokenID string) (entity.CommandResult, error) {
	sig, err := s.signing()
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandStake, Message: err.Error()}, err
	}
	res, err := s.actions.Stake(ctx, sig, s.stakingPanel, tokenID)
	return s.afterCommand(ctx, res, err)
}

func (s *Session) Unstake(ctx context.Context, tokenID string) (entity.CommandResult, error) {
	sig, err := s.signing()
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandUnstake, Message: err.Error()}, err
	}
	res, err := s.actions.Unstake(ctx, sig, s.stakingPanel, tokenID)
	return s.afterCommand(ctx, res, err)
}

func (s *Session) Claim(ctx context.Context) (entity.CommandResult, error) {
	sig, err := s.signing()
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandClaim, Message: err.Error()}, err
	}
	res, err := s.actions.Claim(ctx, sig, s.stakingPanel, s.StakingStats().PendingRewardsWei)
	return s.afterCommand(ctx, res, err)
}

func (s *Session) CreatePool(ctx context.Context, form entity.FactoryForm) (entity.CommandResult, error) {
	sig, err := s.signing()
	if err != nil {
		return entity.CommandResult{Kind: entity.CommandCreatePool, Message: err.Error()}, err
	}
	res, err := s.actions.CreatePool(ctx, sig, s.factoryPanel, s.FactoryRegistry().IsOwner, form)
	return s.afterCommand(ctx, res, err)
}

// afterCommand triggers a manual refresh once a command is confirmed. It runs
// outside the scheduler and leaves its phase alone.
func (s *Session) afterCommand(ctx context.Context, res entity.CommandResult, err error) (entity.CommandResult, error) {
	if err == nil && res.State == entity.StateConfirmed {
		s.Refresh(ctx)
	}
	return res, err
}

type sessionSnapshot struct {
	generation   uint64
	contracts    port.ContractSet
	account      common.Address
	selectedPool *common.Address
}

func (s *Session) snapshot() (sessionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return sessionSnapshot{}, false
	}
	snap := sessionSnapshot{
		generation: s.generation,
		contracts:  s.conn.Contracts(),
		account:    s.account,
	}
	if s.selectedPool != nil {
		pool := *s.selectedPool
		snap.selectedPool = &pool
	}
	return snap, true
}

func (s *Session) signing() (Signing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return Signing{}, entity.ErrNotConnected
	}
	return Signing{Contracts: s.conn.Contracts(), Wallet: s.conn.Wallet(), Account: s.account}, nil
}

func (s *Session) poolCommand(pool string) (common.Address, *Surface[entity.PoolCardForm], Signing, error) {
	if !utils.IsValidAddress(pool) {
		return common.Address{}, nil, Signing{}, fmt.Errorf("%w: %q is not an address", ErrInvalidInput, pool)
	}
	sig, err := s.signing()
	if err != nil {
		return common.Address{}, nil, Signing{}, err
	}
	addr := common.HexToAddress(pool)
	s.mu.Lock()
	card := s.poolCardLocked(addr)
	s.mu.Unlock()
	return addr, card, sig, nil
}

func (s *Session) poolCardLocked(pool common.Address) *Surface[entity.PoolCardForm] {
	card, ok := s.poolCards[pool]
	if !ok {
		card = NewSurface[entity.PoolCardForm]("pool:"+pool.Hex(), s.onTransition)
		s.poolCards[pool] = card
	}
	return card
}

func (s *Session) startScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.sched != nil {
		return
	}
	sched := scheduler.New(s.cfg.RefreshInterval(), s.Refresh, s.logger)
	if err := sched.Start(s.baseCtx); err != nil {
		s.logger.Error("Failed to start refresh scheduler", "error", err)
		return
	}
	s.sched = sched
}

func (s *Session) setAccountLocked(account common.Address, wallet port.WalletProvider) {
	s.account = account
	s.connection.Account = account.Hex()
	s.connection.AccountDisplay = utils.FormatAddress(account.Hex())
	s.connection.CanSign = wallet.CanSign(account)
}

func (s *Session) resetViewsLocked() {
	s.selectedPool = nil
	s.inventory = entity.PoolInventory{PoolNFTs: []entity.NFTItem{}, UserNFTs: []entity.NFTItem{}}
	factory := common.HexToAddress(s.cfg.Contracts.FactoryAddress).Hex()
	s.poolList = entity.PoolList{Pools: []string{}, FactoryAddress: factory, NetworkName: s.cfg.Network.Name}
	s.registry = entity.FactoryRegistry{FactoryAddress: factory, Pools: []entity.RegistryEntry{}}
	s.stats = entity.StakingStats{}
	s.receipts = []entity.NFTItem{}
}

func (s *Session) disconnectedState() entity.Connection {
	return entity.Connection{ExpectedChainID: s.cfg.Network.ID, ExpectedNetwork: s.cfg.Network.Name}
}

func asConnectionError(reason string, err error) error {
	var connErr *entity.ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &entity.ConnectionError{Reason: reason, Err: err}
}

func hexAll(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}
