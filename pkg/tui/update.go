package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case explorer.Event:
		msg.Apply(&m.state)
		m.refreshTable()
		cmds = append(cmds, listenForEvents(m.sub))

	case exploreDoneMsg:
		var verr *state.ValidationError
		if errors.As(msg.err, &verr) {
			m.alert = verr.Error()
		} else if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Explore failed: %v", msg.err)
			cmds = append(cmds, clearStatusAfter(3*time.Second))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// The alert is modal: any key dismisses it.
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	if m.showHelp {
		if key == "q" || key == "esc" || key == "?" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showLatency {
		if key == "q" || key == "esc" || key == "L" {
			m.showLatency = false
		}
		return m, nil
	}

	switch key {
	case "tab":
		m.networkIdx = (m.networkIdx + 1) % len(models.Networks)
		return m, nil
	case "shift+tab":
		m.networkIdx = (m.networkIdx - 1 + len(models.Networks)) % len(models.Networks)
		return m, nil
	case "enter":
		return m.submit()
	}

	if m.input.Focused() {
		if key == "esc" {
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch key {
	case "q":
		return m, tea.Quit
	case "/", "i":
		return m, m.input.Focus()
	case "?":
		m.showHelp = true
	case "L":
		m.showLatency = true
	case "P":
		m.privacyMode = !m.privacyMode
		m.refreshTable()
	case "t":
		if m.activeTab == tabTokens {
			m.activeTab = tabNFTs
		} else {
			m.activeTab = tabTokens
		}
		m.cursor = 0
		m.viewport.GotoTop()
		m.refreshTable()
	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
			m.refreshTable()
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.refreshTable()
		}
	case "c":
		addr := m.selectedContract()
		if addr == "" {
			break
		}
		if err := clipboard.WriteAll(addr); err != nil {
			m.statusMessage = "Failed to copy to clipboard"
		} else if m.privacyMode {
			m.statusMessage = "Full address copied (Privacy Mode active)!"
		} else {
			m.statusMessage = "Address copied to clipboard!"
		}
		cmds = append(cmds, clearStatusAfter(2*time.Second))
	case "o":
		addr := m.selectedContract()
		base := m.state.Network.Info().ExplorerURL
		if addr == "" || base == "" {
			break
		}
		url := fmt.Sprintf("%s/address/%s", strings.TrimRight(base, "/"), addr)
		if err := openBrowser(url); err != nil {
			m.statusMessage = fmt.Sprintf("Failed to open browser: %v", err)
		} else {
			m.statusMessage = "Opened in browser"
		}
		cmds = append(cmds, clearStatusAfter(2*time.Second))
	}

	return m, tea.Batch(cmds...)
}
