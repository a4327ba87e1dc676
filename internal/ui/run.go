package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"tunepull/internal/model"
)

// Run drives the batch through the TUI and returns the final report once the
// program exits.
func Run(ctx context.Context, jobs []model.Job, opts model.CLIOptions) (*model.BatchReport, error) {
	m := NewModel(ctx, jobs, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(Model)
	if !ok {
		return nil, errors.New("unexpected final model type")
	}
	if fm.depsErr != nil {
		return nil, fm.depsErr
	}
	return fm.report, nil
}
