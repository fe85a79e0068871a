package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run attaches t to a new terminal program and blocks until the user quits
// or ctx is done.
func Run(ctx context.Context, t *Transport, opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	t.Attach(p.Send)
	defer t.Attach(nil)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console tui failed: %w", err)
	}
	return nil
}
