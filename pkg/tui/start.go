package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ptrack/pkg/explorer"
	"ptrack/pkg/models"
)

// Start runs the terminal UI until the user quits or ctx is cancelled.
func Start(ctx context.Context, e *explorer.Explorer, network models.Network, version string) error {
	Version = version
	m := initialModel(ctx, e, network)
	defer e.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
