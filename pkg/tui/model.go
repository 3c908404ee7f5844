package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}

// exploreDoneMsg is sent when a cycle started from the form returns.
type exploreDoneMsg struct {
	err error
}

type tab int

const (
	tabTokens tab = iota
	tabNFTs
)

// --- Model ---

type model struct {
	ctx           context.Context
	explorer      *explorer.Explorer
	sub           explorer.Subscriber
	state         state.ViewState
	input         textinput.Model
	networkIdx    int
	spinner       spinner.Model
	viewport      viewport.Model
	activeTab     tab
	cursor        int
	width         int
	height        int
	alert         string
	statusMessage string
	showHelp      bool
	showLatency   bool
	privacyMode   bool
}

func initialModel(ctx context.Context, e *explorer.Explorer, network models.Network) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Wallet address (0x...)"
	ti.Width = 46
	ti.CharLimit = 128
	ti.Focus()

	m := model{
		ctx:        ctx,
		explorer:   e,
		sub:        e.Subscribe(),
		state:      e.Snapshot(),
		input:      ti,
		networkIdx: models.NetworkIndex(network),
		spinner:    s,
		viewport:   viewport.New(0, 0),
	}
	m.state.SetNetwork(network)
	m.refreshTable()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		listenForEvents(m.sub),
		m.spinner.Tick,
	)
}

func (m model) selectedNetwork() models.NetworkInfo {
	return models.Networks[m.networkIdx]
}
