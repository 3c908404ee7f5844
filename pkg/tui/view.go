package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"ptrack/pkg/display"
	"ptrack/pkg/models"
)

func (m model) View() string {
	if m.alert != "" {
		return m.viewAlert()
	}
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showLatency {
		return m.viewLatency()
	}

	title := titleStyle.Render(fmt.Sprintf("Portfolio Tracker - %s", m.selectedNetwork().Label))

	form := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Address: %s", m.input.View()),
		fmt.Sprintf("Network: %s", m.viewNetworks()),
	)

	status := ""
	if m.state.Loading {
		status = m.spinner.View() + " Loading..."
	} else if m.statusMessage != "" {
		status = infoStyle.Render(m.statusMessage)
	}

	cards := m.viewCards()
	tabs := m.viewTabs()
	header := tableHeaderStyle.Render(m.tableHeader())

	var table string
	if m.viewport.Height > 0 {
		table = m.viewport.View()
	} else {
		table = strings.Join(m.tableLines(), "\n")
	}

	footer := subtleStyle.Render(fmt.Sprintf(
		"/:input • tab:network • enter:explore • t:tab • j/k:move • c:copy • o:open • L:latency • ?:help • q:quit • v%s",
		Version))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		form,
		status,
		cards,
		tabs,
		header,
		table,
		footer,
	)
}

func (m model) viewNetworks() string {
	var parts []string
	for i, n := range models.Networks {
		if i == m.networkIdx {
			parts = append(parts, activeTabStyle.Render(n.Label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(n.Label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m model) viewCards() string {
	summary := display.Summary(m.state)

	currency := m.maskString(summary.Currency())
	quote := m.maskString(summary.NativeQuote)
	if m.state.Native.Status == models.StatusFailed {
		currency = errStyle.Render("failed")
	}

	tokens := summary.TokenCountText()
	if m.state.Tokens.Status == models.StatusFailed {
		tokens = errStyle.Render("failed")
	}
	nfts := summary.NFTCountText()
	if m.state.NFTs.Status == models.StatusFailed {
		nfts = errStyle.Render("failed")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			subtleStyle.Render("Currency"), cardValueStyle.Render(currency), quote)),
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			subtleStyle.Render("Tokens"), cardValueStyle.Render(tokens))),
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			subtleStyle.Render("NFTs"), cardValueStyle.Render(nfts))),
	)
}

func (m model) viewTabs() string {
	tokens, nfts := inactiveTabStyle, inactiveTabStyle
	if m.activeTab == tabTokens {
		tokens = activeTabStyle
	} else {
		nfts = activeTabStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tokens.Render("Tokens"), nfts.Render("NFTs"))
}

func (m model) viewAlert() string {
	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Warning"),
		"\n",
		m.alert,
		"\n",
		subtleStyle.Render("Press any key to continue"),
	))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) viewHelp() string {
	help := [][2]string{
		{"/ or i", "Focus the address input"},
		{"esc", "Leave the address input"},
		{"tab / shift+tab", "Next / previous network"},
		{"enter", "Explore the address"},
		{"t", "Switch between Tokens and NFTs"},
		{"j / k", "Move the row cursor"},
		{"c", "Copy the selected contract (or wallet) address"},
		{"o", "Open the selected address in the block explorer"},
		{"L", "Show cycle latency graph"},
		{"P", "Toggle privacy mode"},
		{"q", "Quit"},
	}
	var rows []string
	for _, h := range help {
		rows = append(rows, fmt.Sprintf("%-18s %s", h[0], h[1]))
	}
	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Help"),
		"\n",
		strings.Join(rows, "\n"),
		"\n",
		subtleStyle.Render("?/q/esc: back"),
	))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) viewLatency() string {
	header := titleStyle.Render("Explore Latency")
	samples := m.latencySamples()

	var graph string
	if len(samples) > 1 {
		width := m.width - 20
		if width < 10 {
			width = 10
		}
		height := m.height - 12
		if height < 5 {
			height = 5
		}
		graph = asciigraph.Plot(samples,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("Cycle duration (ms)"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", graph))
	footer := subtleStyle.Render("L/q/esc: back")
	if m.width == 0 || m.height == 0 {
		return lipgloss.JoinVertical(lipgloss.Center, content, footer)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}
