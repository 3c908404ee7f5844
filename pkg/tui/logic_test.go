package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

type stubSource struct {
	native    []models.AssetBalance
	tokens    []models.AssetBalance
	nfts      []models.NftRecord
	nativeErr error
	tokensErr error
	nftsErr   error
}

func (s stubSource) GetNativeBalance(ctx context.Context, _ models.Network, _ string) ([]models.AssetBalance, error) {
	return s.native, s.nativeErr
}

func (s stubSource) GetTokenBalances(ctx context.Context, _ models.Network, _ string) ([]models.AssetBalance, error) {
	return s.tokens, s.tokensErr
}

func (s stubSource) GetNftHoldings(ctx context.Context, _ models.Network, _ string) ([]models.NftRecord, error) {
	return s.nfts, s.nftsErr
}

func strPtr(s string) *string { return &s }

func fullSource() stubSource {
	return stubSource{
		native: []models.AssetBalance{{
			Symbol: "ETH", Name: "Ether", Balance: "1000000000000000000", Decimals: 18,
			PrettyQuote: strPtr("$2,000.00"), Native: true,
		}},
		tokens: []models.AssetBalance{
			{ContractAddress: "0xa", Name: "USD Coin", Symbol: "USDC", Balance: "5000000", Decimals: 6, PrettyQuote: strPtr("$5.00")},
			{ContractAddress: "0xb", Name: "Dai", Symbol: "DAI", Balance: "2500000000000000000", Decimals: 18},
		},
		nfts: []models.NftRecord{
			{ContractAddress: "0xp", Name: "Punks", Symbol: "PNK", PrettyFloorPrice: strPtr("$90,000.00")},
		},
	}
}

func newTestModel(t *testing.T, ds explorer.DataSource) model {
	t.Helper()
	e := explorer.New(ds, explorer.Options{}, nil, nil)
	m := initialModel(context.Background(), e, models.EthMainnet)
	t.Cleanup(func() { e.Unsubscribe(m.sub) })
	return m
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func keyRune(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// explore submits address, runs the resulting cycle synchronously and feeds
// every published event back into the model.
func explore(t *testing.T, m model, address string) model {
	t.Helper()
	m.input.SetValue(address)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	done, ok := msg.(exploreDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	for len(m.sub) > 0 {
		m, _ = update(t, m, <-m.sub)
	}
	return m
}

func TestInitialView(t *testing.T) {
	m := newTestModel(t, fullSource())

	view := m.View()
	assert.Contains(t, view, "Portfolio Tracker - Ethereum")
	assert.Contains(t, view, "Enter an address and press enter to explore.")
	assert.True(t, m.input.Focused())
}

func TestSubmitEmptyAddressRaisesAlert(t *testing.T) {
	m := newTestModel(t, fullSource())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, state.WarningMessage, m.alert)
	assert.Contains(t, m.View(), state.WarningMessage)
	assert.Empty(t, m.explorer.LatencyHistory())

	m, _ = update(t, m, keyRune("x"))
	assert.Empty(t, m.alert)
	// The dismissing key is swallowed.
	assert.Empty(t, m.input.Value())
}

func TestNetworkCycling(t *testing.T) {
	m := newTestModel(t, fullSource())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.BscMainnet, m.selectedNetwork().ID)
	assert.Contains(t, m.View(), "Portfolio Tracker - Binance")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, models.FantomMainnet, m.selectedNetwork().ID)
}

func TestExploreRendersResults(t *testing.T) {
	m := newTestModel(t, fullSource())
	m = explore(t, m, "0xABC")

	assert.False(t, m.state.Loading)
	assert.False(t, m.input.Focused())
	assert.Equal(t, "0xABC", m.state.Address)

	view := m.View()
	assert.Contains(t, view, "1.0 ETH")
	assert.Contains(t, view, "$2,000.00")
	assert.Contains(t, view, "USD Coin")
	assert.Contains(t, view, "5.0")
	assert.Contains(t, view, "2.5")
	assert.Contains(t, view, "$0.00")
	assert.Len(t, m.explorer.LatencyHistory(), 1)
}

func TestExploreUsesSelectedNetwork(t *testing.T) {
	m := newTestModel(t, fullSource())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = explore(t, m, "0xABC")

	assert.Equal(t, models.BscMainnet, m.state.Network)
	assert.Equal(t, models.BscMainnet, m.explorer.Snapshot().Network)
}

func TestFailedResourcesAreShownIndependently(t *testing.T) {
	ds := fullSource()
	ds.nativeErr = errors.New("boom")
	ds.tokensErr = errors.New("upstream down")
	m := newTestModel(t, ds)
	m = explore(t, m, "0xABC")

	view := m.View()
	assert.Contains(t, view, "failed")
	assert.Contains(t, view, "Failed to load tokens: upstream down")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, keyRune("t"))
	assert.Contains(t, m.View(), "Punks")
}

func TestEmptyListings(t *testing.T) {
	m := newTestModel(t, stubSource{})
	m = explore(t, m, "0xABC")

	assert.Contains(t, m.View(), "No tokens found.")
	m, _ = update(t, m, keyRune("t"))
	assert.Contains(t, m.View(), "No NFTs found.")
}

func TestTabSwitchAndCursor(t *testing.T) {
	m := newTestModel(t, fullSource())
	m = explore(t, m, "0xABC")

	m, _ = update(t, m, keyRune("j"))
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "0xb", m.selectedContract())
	m, _ = update(t, m, keyRune("j"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last row")
	m, _ = update(t, m, keyRune("k"))
	m, _ = update(t, m, keyRune("k"))
	assert.Equal(t, 0, m.cursor)

	m, _ = update(t, m, keyRune("j"))
	m, _ = update(t, m, keyRune("t"))
	assert.Equal(t, tabNFTs, m.activeTab)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "0xp", m.selectedContract())
	assert.Contains(t, m.View(), "$90,000.00")
}

func TestInputFocus(t *testing.T) {
	m := newTestModel(t, fullSource())

	m, _ = update(t, m, keyRune("t"))
	assert.Equal(t, "t", m.input.Value(), "keys go to the focused input")
	assert.Equal(t, tabTokens, m.activeTab)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.input.Focused())

	m, _ = update(t, m, keyRune("/"))
	assert.True(t, m.input.Focused())
}

func TestPrivacyMode(t *testing.T) {
	m := newTestModel(t, fullSource())
	m = explore(t, m, "0xABC")

	m, _ = update(t, m, keyRune("P"))
	assert.True(t, m.privacyMode)
	view := m.View()
	assert.NotContains(t, view, "$2,000.00")
	assert.Contains(t, view, "****")
}

func TestOverlays(t *testing.T) {
	m := newTestModel(t, fullSource())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, _ = update(t, m, keyRune("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Switch between Tokens and NFTs")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)

	m, _ = update(t, m, keyRune("L"))
	assert.True(t, m.showLatency)
	assert.Contains(t, m.View(), "Not enough data to draw graph.")
	m, _ = update(t, m, keyRune("L"))
	assert.False(t, m.showLatency)
}

func TestLatencyGraph(t *testing.T) {
	m := newTestModel(t, fullSource())
	m = explore(t, m, "0xABC")
	m = explore(t, m, "0xDEF")
	require.Len(t, m.latencySamples(), 2)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, keyRune("L"))
	view := m.View()
	assert.NotContains(t, view, "Not enough data to draw graph.")
	assert.Contains(t, view, "Cycle duration (ms)")
}

func TestResizeKeepsTableInViewport(t *testing.T) {
	m := newTestModel(t, fullSource())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 40-tableChrome, m.viewport.Height)

	m = explore(t, m, "0xABC")
	assert.Contains(t, m.View(), "USD Coin")
}

func TestExploreDoneValidationError(t *testing.T) {
	m := newTestModel(t, fullSource())
	m, _ = update(t, m, exploreDoneMsg{err: &state.ValidationError{Field: "address"}})
	assert.Equal(t, state.WarningMessage, m.alert)
}

func TestNFTContractColumnWidth(t *testing.T) {
	const contract = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	ds := fullSource()
	ds.nfts = []models.NftRecord{{ContractAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", Name: "Punks", Symbol: "PNK"}}
	m := newTestModel(t, ds)
	m = explore(t, m, "0xABC")
	m, _ = update(t, m, keyRune("t"))

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	view := m.View()
	assert.Contains(t, view, "0x5aAe...eAed")
	assert.NotContains(t, view, contract)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	assert.Contains(t, m.View(), contract)
}
