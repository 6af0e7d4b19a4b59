package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	chain     *fakeChain
	meta      *fakeMetadata
	wallet    *fakeWallet
	connector *fakeConnector
	rec       *transitions
	session   *Session
}

func newSessionFixture(t *testing.T, wrap func(port.PoolQueries) port.PoolQueries) *sessionFixture {
	t.Helper()
	cfg := testConfig(t)
	chain := newFakeChain()
	meta := newFakeMetadata()
	chain.addPool(pool1, collectionAddr, 1e15)
	chain.addPool(pool2, collectionAddr, 1e15)
	chain.addPool(pool3, collectionAddr, 2e15)
	seedCollection(chain, meta, pool1, 10, 11, 12)

	wallet := &fakeWallet{accounts: []common.Address{userAddr, otherUser}, chainID: 146}
	connector := &fakeConnector{chain: chain, wallet: wallet}
	rec := &transitions{}

	pools := NewPoolService(cfg, meta, nopLogger)
	if wrap != nil {
		pools = wrap(pools)
	}
	session := NewSession(cfg, SessionDeps{
		Connector:    connector,
		Pools:        pools,
		Staking:      NewStakingService(cfg, meta, nopLogger),
		Actions:      NewActionService(cfg, nopLogger),
		Logger:       nopLogger,
		OnTransition: rec.record,
	})
	t.Cleanup(session.Close)

	return &sessionFixture{chain: chain, meta: meta, wallet: wallet, connector: connector, rec: rec, session: session}
}

func TestSession_ConnectSelectAndStake(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	conn, err := f.session.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.Equal(t, uint64(146), conn.ChainID)
	assert.False(t, conn.WrongNetwork)
	assert.True(t, conn.CanSign)
	assert.True(t, conn.AutoRefresh)
	assert.Equal(t, userAddr.Hex(), conn.Account)
	assert.Equal(t, []string{userAddr.Hex(), otherUser.Hex()}, conn.AvailableAccounts)

	list := f.session.PoolList()
	require.True(t, list.Available)
	assert.Equal(t, 3, list.TotalPools)

	inv, err := f.session.SelectPool(ctx, pool1.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11", "12"}, tokenIDs(inv.PoolNFTs))
	assert.Equal(t, "Stoner #10", inv.PoolNFTs[0].DisplayName)
	assert.Equal(t, "0.001", inv.Pool.SwapFee)

	before := f.session.StakingStats()
	require.True(t, before.Available)
	assert.Equal(t, uint64(0), before.UserReceiptCount)

	res, err := f.session.Stake(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, res.State)
	assert.Equal(t, []string{
		"staking:idle->submitting",
		"staking:submitting->confirmed",
		"staking:confirmed->idle",
	}, f.rec.all())
	assert.Empty(t, f.session.StakingForm().StakeTokenID)

	after := f.session.StakingStats()
	assert.Equal(t, before.UserReceiptCount+1, after.UserReceiptCount)
	assert.Equal(t, 1, after.UserStakedCount)
	receipts := f.session.Receipts()
	require.Len(t, receipts, 1)
	assert.Equal(t, "Stake Receipt #42", receipts[0].DisplayName)

	selected, ok := f.session.SelectedPool()
	assert.True(t, ok)
	assert.Equal(t, inv, selected, "selected pool is refreshed with everything else")
}

func TestSession_WrongNetworkStillReads(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.wallet.chainID = 1

	conn, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.True(t, conn.WrongNetwork)
	assert.Equal(t, uint64(1), conn.ChainID)
	assert.Equal(t, uint64(146), conn.ExpectedChainID)
	assert.Equal(t, "Sonic", conn.ExpectedNetwork)
	assert.Equal(t, 3, f.session.PoolList().TotalPools)
}

func TestSession_ConnectErrors(t *testing.T) {
	t.Run("network unreachable", func(t *testing.T) {
		f := newSessionFixture(t, nil)
		f.connector.err = errors.New("dial tcp 127.0.0.1:8545: connection refused")

		conn, err := f.session.Connect(context.Background())
		var connErr *entity.ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.False(t, conn.Connected)
		assert.False(t, conn.AutoRefresh)
	})

	t.Run("no accounts", func(t *testing.T) {
		f := newSessionFixture(t, nil)
		f.wallet.accounts = nil

		_, err := f.session.Connect(context.Background())
		var connErr *entity.ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.True(t, f.connector.last.closed)
		assert.False(t, f.session.Connection().Connected)
	})

	t.Run("wallet refused", func(t *testing.T) {
		f := newSessionFixture(t, nil)
		f.wallet.err = errors.New("user rejected the request")

		_, err := f.session.Connect(context.Background())
		var connErr *entity.ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Contains(t, err.Error(), "user rejected the request")
	})
}

func TestSession_NotConnected(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	_, err := f.session.Stake(ctx, "1")
	assert.ErrorIs(t, err, entity.ErrNotConnected)
	_, err = f.session.SelectPool(ctx, pool1.Hex())
	assert.ErrorIs(t, err, entity.ErrNotConnected)
	_, err = f.session.ChangeAccount(ctx, otherUser.Hex())
	assert.ErrorIs(t, err, entity.ErrNotConnected)

	f.session.Refresh(ctx)
	assert.False(t, f.session.PoolList().Available)
	assert.Empty(t, f.chain.sentMethods())
}

func TestSession_Disconnect(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)
	_, err = f.session.SelectPool(ctx, pool1.Hex())
	require.NoError(t, err)

	f.session.Disconnect()

	conn := f.session.Connection()
	assert.False(t, conn.Connected)
	assert.False(t, conn.AutoRefresh)
	assert.Empty(t, conn.Account)
	assert.True(t, f.connector.last.closed)
	assert.Empty(t, f.session.PoolList().Pools)
	assert.False(t, f.session.StakingStats().Available)
	_, selected := f.session.SelectedPool()
	assert.False(t, selected)
}

func TestSession_OverlappingConnectsLeaveOneConnection(t *testing.T) {
	f := newSessionFixture(t, nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.connector.gate = func(n int) {
		if n == 0 {
			close(entered)
			<-release
		}
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	connect := func() {
		defer wg.Done()
		_, err := f.session.Connect(ctx)
		assert.NoError(t, err)
	}
	wg.Add(2)
	go connect()
	<-entered
	go connect()
	close(release)
	wg.Wait()

	conns := f.connector.connections()
	require.Len(t, conns, 2)
	open := 0
	for _, c := range conns {
		if !c.isClosed() {
			open++
		}
	}
	assert.Equal(t, 1, open)
	assert.True(t, f.session.Connection().Connected)

	f.session.Close()
	for i, c := range conns {
		assert.True(t, c.isClosed(), "connection %d left open", i)
	}
}

func TestSession_ChangeAccount(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.chain.staked[otherUser] = ids(1, 2, 3)
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)

	conn, err := f.session.ChangeAccount(ctx, otherUser.Hex())
	require.NoError(t, err)
	assert.Equal(t, otherUser.Hex(), conn.Account)
	assert.True(t, conn.AutoRefresh)
	assert.Equal(t, 3, f.session.StakingStats().UserStakedCount)

	_, err = f.session.ChangeAccount(ctx, "0x00000000000000000000000000000000000000FF")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.session.ChangeAccount(ctx, "bob")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, otherUser.Hex(), f.session.Connection().Account)
}

func TestSession_FailedStatsKeepPreviousSnapshot(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.chain.totalStaked = 9
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)
	require.Equal(t, "9", f.session.StakingStats().TotalStaked)

	f.chain.failReads["totalStaked"] = errors.New("rpc timeout")
	f.session.Refresh(ctx)

	stats := f.session.StakingStats()
	assert.True(t, stats.Available)
	assert.Equal(t, "9", stats.TotalStaked)
}

func TestSession_ClaimUsesLatestSnapshot(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)

	_, err = f.session.Claim(ctx)
	require.ErrorIs(t, err, ErrNothingToClaim)

	f.chain.rewards[userAddr] = ids(5e17)[0]
	f.session.Refresh(ctx)
	res, err := f.session.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, res.State)
	assert.False(t, f.session.StakingStats().HasPendingRewards())
}

func TestSession_CreatePoolAsOwner(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)

	_, err = f.session.CreatePool(ctx, entity.FactoryForm{NFTCollection: collectionAddr.Hex()})
	require.ErrorIs(t, err, ErrNotOwner)

	f.chain.factoryOwner = userAddr
	f.session.Refresh(ctx)
	require.True(t, f.session.FactoryRegistry().IsOwner)

	res, err := f.session.CreatePool(ctx, entity.FactoryForm{NFTCollection: collectionAddr.Hex()})
	require.NoError(t, err)
	assert.Equal(t, f.chain.nextPool.Hex(), res.PoolAddress)
	assert.Equal(t, 4, f.session.PoolList().TotalPools)
	assert.Equal(t, 4, f.session.FactoryRegistry().TotalPools)
}

func TestSession_SwapOnPoolCard(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)

	res, err := f.session.Swap(ctx, pool1.Hex(), entity.PoolCardForm{SelectedPoolTokenID: "11", TokenIDIn: "7"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, res.State)
	assert.Equal(t, entity.PoolCardForm{}, f.session.PoolCardForm(pool1.Hex()))
	assert.Equal(t, []string{
		fmt.Sprintf("pool:%s:idle->submitting", pool1.Hex()),
		fmt.Sprintf("pool:%s:submitting->confirmed", pool1.Hex()),
		fmt.Sprintf("pool:%s:confirmed->idle", pool1.Hex()),
	}, f.rec.all())

	_, err = f.session.Swap(ctx, "not-a-pool", entity.PoolCardForm{SelectedPoolTokenID: "11", TokenIDIn: "7"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// gatedPools blocks the next ListPools call until released.
type gatedPools struct {
	port.PoolQueries
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPools) ListPools(ctx context.Context, contracts port.ContractSet) entity.PoolList {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.PoolQueries.ListPools(ctx, contracts)
}

func TestSession_StaleRefreshIsDiscarded(t *testing.T) {
	gate := &gatedPools{entered: make(chan struct{}), release: make(chan struct{})}
	f := newSessionFixture(t, func(p port.PoolQueries) port.PoolQueries {
		gate.PoolQueries = p
		return gate
	})
	ctx := context.Background()
	_, err := f.session.Connect(ctx)
	require.NoError(t, err)

	gate.armed.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.session.Refresh(ctx)
	}()
	<-gate.entered

	f.session.Disconnect()
	close(gate.release)
	<-done

	list := f.session.PoolList()
	assert.False(t, list.Available)
	assert.Empty(t, list.Pools)
	assert.False(t, f.session.Connection().Connected)
}
