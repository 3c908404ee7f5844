package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"ptrack/pkg/display"
	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
	"ptrack/pkg/utils"
)

const (
	tableChrome = 16
	// Below this width NFT contract addresses are abbreviated.
	wideLayout = 100
)

func listenForEvents(sub explorer.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func exploreCmd(ctx context.Context, e *explorer.Explorer, address, network string) tea.Cmd {
	return func() tea.Msg {
		_, err := e.Explore(ctx, address, network)
		return exploreDoneMsg{err: err}
	}
}

// submit validates the form and starts a cycle. An invalid form raises
// the alert and performs no fetch.
func (m model) submit() (model, tea.Cmd) {
	m.state.SetAddress(m.input.Value())
	m.state.SetNetwork(m.selectedNetwork().ID)
	q, err := m.state.Query()
	if err != nil {
		m.alert = err.Error()
		return m, nil
	}
	m.input.Blur()
	m.cursor = 0
	return m, exploreCmd(m.ctx, m.explorer, q.Address, string(q.Network))
}

func (m model) rowCount() int {
	if m.activeTab == tabNFTs {
		return len(display.NFTRows(m.state))
	}
	return len(display.TokenRows(m.state))
}

// selectedContract returns the contract address under the cursor, or the
// wallet address when the table is empty.
func (m model) selectedContract() string {
	switch m.activeTab {
	case tabNFTs:
		if rows := display.NFTRows(m.state); m.cursor < len(rows) {
			return rows[m.cursor].ContractAddress
		}
	default:
		if rows := display.TokenRows(m.state); m.cursor < len(rows) {
			return rows[m.cursor].ContractAddress
		}
	}
	return strings.TrimSpace(m.state.Address)
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	if m.viewport.Width < 0 {
		m.viewport.Width = 0
	}
	m.viewport.Height = height - tableChrome
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.refreshTable()
}

// refreshTable re-renders the active table into the viewport and keeps the
// cursor visible.
func (m *model) refreshTable() {
	n := m.rowCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	m.viewport.SetContent(strings.Join(m.tableLines(), "\n"))

	if m.viewport.Height > 0 {
		switch {
		case m.cursor < m.viewport.YOffset:
			m.viewport.SetYOffset(m.cursor)
		case m.cursor >= m.viewport.YOffset+m.viewport.Height:
			m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
		}
	}
}

func (m model) tableHeader() string {
	if m.activeTab == tabNFTs {
		return fmt.Sprintf("  %-4s %-22s %-10s %-*s %14s", "SN", "NFT", "Symbol", m.contractWidth(), "Contract", "Floor Price")
	}
	return fmt.Sprintf("  %-4s %-22s %-10s %24s %14s", "SN", "Token", "Symbol", "Amount", "Value")
}

// tableLines renders the rows of the active tab, or a single line saying
// why there are none.
func (m model) tableLines() []string {
	var status models.Status
	var err error
	label := "tokens"
	if m.activeTab == tabNFTs {
		status, err, label = m.state.NFTs.Status, m.state.NFTs.Err, "NFTs"
	} else {
		status, err = m.state.Tokens.Status, m.state.Tokens.Err
	}

	switch status {
	case models.StatusNotRequested:
		return []string{subtleStyle.Render("Enter an address and press enter to explore.")}
	case models.StatusLoading:
		return []string{subtleStyle.Render("Loading...")}
	case models.StatusFailed:
		return []string{errStyle.Render(fmt.Sprintf("Failed to load %s: %v", label, err))}
	}

	var lines []string
	if m.activeTab == tabNFTs {
		for i, r := range display.NFTRows(m.state) {
			lines = append(lines, m.renderRow(i, fmt.Sprintf("%-4d %-22s %-10s %-*s %14s",
				r.SN,
				utils.TruncateString(r.Name, 22),
				utils.TruncateString(r.Symbol, 10),
				m.contractWidth(),
				m.contractColumn(r.ContractAddress),
				m.maskString(r.FloorPrice),
			)))
		}
	} else {
		for i, r := range display.TokenRows(m.state) {
			lines = append(lines, m.renderRow(i, fmt.Sprintf("%-4d %-22s %-10s %24s %14s",
				r.SN,
				utils.TruncateString(r.Name, 22),
				utils.TruncateString(r.Symbol, 10),
				m.maskString(utils.TruncateString(r.Amount, 24)),
				m.maskString(r.Value),
			)))
		}
	}
	if len(lines) == 0 {
		return []string{subtleStyle.Render(fmt.Sprintf("No %s found.", label))}
	}
	return lines
}

func (m model) narrow() bool {
	return m.width > 0 && m.width < wideLayout
}

func (m model) contractWidth() int {
	if m.narrow() {
		return 13
	}
	return 42
}

// contractColumn renders a contract address for the NFT table, abbreviated
// on narrow terminals.
func (m model) contractColumn(addr string) string {
	out := m.maskAddress(addr)
	if m.narrow() && !m.privacyMode {
		out = utils.ShortAddress(out)
	}
	return out
}

func (m model) renderRow(i int, row string) string {
	if i == m.cursor {
		return selectedRowStyle.Render("> " + row)
	}
	return "  " + row
}

// latencySamples returns cycle durations in milliseconds.
func (m model) latencySamples() []float64 {
	history := m.explorer.LatencyHistory()
	out := make([]float64, 0, len(history))
	for _, d := range history {
		out = append(out, float64(d.Microseconds())/1000)
	}
	return out
}
