package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/docmatch/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the reports until the user quits or ctx is canceled.
func Run(ctx context.Context, reports []model.MatchReport, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(reports),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to run report browser: %w", err)
	}
	return nil
}
