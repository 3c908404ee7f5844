package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) GetNativeBalance(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error) {
	args := m.Called(ctx, network, address)
	assets, _ := args.Get(0).([]models.AssetBalance)
	return assets, args.Error(1)
}

func (m *MockDataSource) GetTokenBalances(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error) {
	args := m.Called(ctx, network, address)
	assets, _ := args.Get(0).([]models.AssetBalance)
	return assets, args.Error(1)
}

func (m *MockDataSource) GetNftHoldings(ctx context.Context, network models.Network, address string) ([]models.NftRecord, error) {
	args := m.Called(ctx, network, address)
	nfts, _ := args.Get(0).([]models.NftRecord)
	return nfts, args.Error(1)
}

// funcSource adapts plain functions to DataSource.
type funcSource struct {
	native func(ctx context.Context) ([]models.AssetBalance, error)
	tokens func(ctx context.Context) ([]models.AssetBalance, error)
	nfts   func(ctx context.Context) ([]models.NftRecord, error)
}

func (f funcSource) GetNativeBalance(ctx context.Context, _ models.Network, _ string) ([]models.AssetBalance, error) {
	return f.native(ctx)
}

func (f funcSource) GetTokenBalances(ctx context.Context, _ models.Network, _ string) ([]models.AssetBalance, error) {
	return f.tokens(ctx)
}

func (f funcSource) GetNftHoldings(ctx context.Context, _ models.Network, _ string) ([]models.NftRecord, error) {
	return f.nfts(ctx)
}

func strPtr(s string) *string { return &s }

var (
	ether = models.AssetBalance{Symbol: "ETH", Balance: "1000000000000000000", Decimals: 18, PrettyQuote: strPtr("$2,000.00"), Native: true}
	usdc  = models.AssetBalance{ContractAddress: "0x1", Symbol: "USDC", Balance: "5000000", Decimals: 6}
	punks = models.NftRecord{ContractAddress: "0xp", Name: "Punks", Symbol: "PNK"}
)

func TestExploreSequentialOrder(t *testing.T) {
	mockDS := new(MockDataSource)
	var mu sync.Mutex
	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
		}
	}
	mockDS.On("GetNativeBalance", mock.Anything, models.EthMainnet, "0xABC").Run(record("native")).Return([]models.AssetBalance{ether}, nil)
	mockDS.On("GetTokenBalances", mock.Anything, models.EthMainnet, "0xABC").Run(record("tokens")).Return([]models.AssetBalance{usdc}, nil)
	mockDS.On("GetNftHoldings", mock.Anything, models.EthMainnet, "0xABC").Run(record("nfts")).Return([]models.NftRecord{punks}, nil)

	e := New(mockDS, Options{}, nil, nil)
	s, err := e.Explore(context.Background(), " 0xABC ", "eth-mainnet")
	require.NoError(t, err)

	mockDS.AssertExpectations(t)
	assert.Equal(t, []string{"native", "tokens", "nfts"}, calls)
	assert.False(t, s.Loading)
	assert.Equal(t, "0xABC", s.Address)
	assert.Equal(t, models.StatusSucceeded, s.Native.Status)
	assert.Equal(t, []models.AssetBalance{ether}, s.Native.Data)
	assert.Equal(t, []models.AssetBalance{usdc}, s.Tokens.Data)
	assert.Equal(t, []models.NftRecord{punks}, s.NFTs.Data)
	assert.Len(t, e.LatencyHistory(), 1)
}

func TestExploreNativeFailureIsolated(t *testing.T) {
	mockDS := new(MockDataSource)
	boom := errors.New("upstream down")
	mockDS.On("GetNativeBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
	mockDS.On("GetTokenBalances", mock.Anything, mock.Anything, mock.Anything).Return([]models.AssetBalance{usdc}, nil)
	mockDS.On("GetNftHoldings", mock.Anything, mock.Anything, mock.Anything).Return([]models.NftRecord{}, nil)

	e := New(mockDS, Options{}, nil, nil)
	s, err := e.Explore(context.Background(), "0xABC", "bsc-mainnet")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, s.Native.Status)
	assert.ErrorIs(t, s.Native.Err, boom)
	assert.Empty(t, s.Native.Data)
	assert.True(t, s.Tokens.Ok())
	assert.True(t, s.NFTs.Ok())
	assert.NotNil(t, s.NFTs.Data)
	assert.False(t, s.Loading)
}

func TestExploreValidationBlocksCycle(t *testing.T) {
	mockDS := new(MockDataSource)
	e := New(mockDS, Options{}, nil, nil)

	s, err := e.Explore(context.Background(), "   ", "eth-mainnet")
	var verr *state.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, state.WarningMessage, err.Error())
	assert.Equal(t, models.StatusNotRequested, s.Native.Status)
	assert.Equal(t, models.StatusNotRequested, s.Tokens.Status)
	assert.Equal(t, models.StatusNotRequested, s.NFTs.Status)
	assert.False(t, s.Loading)

	_, err = e.Explore(context.Background(), "0xABC", "solana-mainnet")
	require.Error(t, err)

	mockDS.AssertNotCalled(t, "GetNativeBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, e.LatencyHistory())
}

func TestExploreValidationKeepsPreviousResults(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("GetNativeBalance", mock.Anything, mock.Anything, mock.Anything).Return([]models.AssetBalance{ether}, nil).Once()
	mockDS.On("GetTokenBalances", mock.Anything, mock.Anything, mock.Anything).Return([]models.AssetBalance{usdc}, nil).Once()
	mockDS.On("GetNftHoldings", mock.Anything, mock.Anything, mock.Anything).Return([]models.NftRecord{punks}, nil).Once()

	e := New(mockDS, Options{}, nil, nil)
	before, err := e.Explore(context.Background(), "0xABC", "eth-mainnet")
	require.NoError(t, err)

	after, err := e.Explore(context.Background(), "", "eth-mainnet")
	require.Error(t, err)
	assert.Equal(t, before, after)
	mockDS.AssertExpectations(t)
}

func TestExploreConcurrent(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	release := make(chan struct{})
	wait := func(ctx context.Context) error {
		started.Done()
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ds := funcSource{
		native: func(ctx context.Context) ([]models.AssetBalance, error) {
			return []models.AssetBalance{ether}, wait(ctx)
		},
		tokens: func(ctx context.Context) ([]models.AssetBalance, error) {
			return []models.AssetBalance{usdc}, wait(ctx)
		},
		nfts: func(ctx context.Context) ([]models.NftRecord, error) {
			return []models.NftRecord{punks}, wait(ctx)
		},
	}

	e := New(ds, Options{Mode: ModeConcurrent, Timeout: 5 * time.Second}, nil, nil)
	done := make(chan state.ViewState, 1)
	go func() {
		s, _ := e.Explore(context.Background(), "0xABC", "matic-mainnet")
		done <- s
	}()

	// All three fetches must be in flight at once before any is released.
	allStarted := make(chan struct{})
	go func() { started.Wait(); close(allStarted) }()
	select {
	case <-allStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not run concurrently")
	}
	close(release)

	select {
	case s := <-done:
		assert.False(t, s.Loading)
		assert.True(t, s.Native.Ok())
		assert.True(t, s.Tokens.Ok())
		assert.True(t, s.NFTs.Ok())
	case <-time.After(2 * time.Second):
		t.Fatal("cycle did not finish")
	}
}

func TestExploreTimeoutClearsLoading(t *testing.T) {
	hang := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	ds := funcSource{
		native: func(ctx context.Context) ([]models.AssetBalance, error) { return nil, hang(ctx) },
		tokens: func(ctx context.Context) ([]models.AssetBalance, error) { return nil, hang(ctx) },
		nfts:   func(ctx context.Context) ([]models.NftRecord, error) { return nil, hang(ctx) },
	}

	e := New(ds, Options{Timeout: 10 * time.Millisecond}, nil, nil)
	s, err := e.Explore(context.Background(), "0xABC", "fantom-mainnet")
	require.NoError(t, err)

	assert.False(t, s.Loading)
	assert.ErrorIs(t, s.Native.Err, context.DeadlineExceeded)
	assert.ErrorIs(t, s.Tokens.Err, context.DeadlineExceeded)
	assert.ErrorIs(t, s.NFTs.Err, context.DeadlineExceeded)
}

func TestEventsMirrorStore(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("GetNativeBalance", mock.Anything, mock.Anything, mock.Anything).Return([]models.AssetBalance{ether}, nil)
	mockDS.On("GetTokenBalances", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("bad gateway"))
	mockDS.On("GetNftHoldings", mock.Anything, mock.Anything, mock.Anything).Return([]models.NftRecord{punks}, nil)

	e := New(mockDS, Options{}, nil, nil)
	sub := e.Subscribe()
	defer e.Unsubscribe(sub)

	s, err := e.Explore(context.Background(), "0xABC", "eth-mainnet")
	require.NoError(t, err)

	mirror := state.New(models.DefaultNetwork)
	var types []EventType
	for i := 0; i < 5; i++ {
		select {
		case ev := <-sub:
			types = append(types, ev.Type)
			assert.Equal(t, uint64(1), ev.Cycle)
			ev.Apply(&mirror)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %v", types)
		}
	}

	assert.Equal(t, []EventType{
		EventCycleStarted, EventNativeUpdated, EventTokensUpdated, EventNFTsUpdated, EventCycleFinished,
	}, types)
	assert.Equal(t, s, mirror)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	e := New(new(MockDataSource), Options{}, nil, nil)
	sub := e.Subscribe()
	assert.NotNil(t, sub)

	e.mu.RLock()
	assert.Equal(t, 1, len(e.subscribers))
	e.mu.RUnlock()

	e.Unsubscribe(sub)
	e.mu.RLock()
	assert.Equal(t, 0, len(e.subscribers))
	e.mu.RUnlock()

	_, open := <-sub
	assert.False(t, open)
}

func TestLatencyHistoryCapped(t *testing.T) {
	e := New(new(MockDataSource), Options{}, nil, nil)
	for i := 1; i <= historySize+5; i++ {
		e.recordLatency(time.Duration(i) * time.Millisecond)
	}
	h := e.LatencyHistory()
	require.Len(t, h, historySize)
	assert.Equal(t, 6*time.Millisecond, h[0])
	assert.Equal(t, time.Duration(historySize+5)*time.Millisecond, h[len(h)-1])
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, m)

	m, err = ParseMode(" Concurrent ")
	require.NoError(t, err)
	assert.Equal(t, ModeConcurrent, m)

	_, err = ParseMode("parallel")
	assert.Error(t, err)
}
