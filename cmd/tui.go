package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
	"github.com/do-hu-so/GD-Ba-Than/internal/ui"
)

// TUI launches the interactive gallery browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/gallery-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Gallery:   r.media,
		Workflows: r.workflows,
		Download: tasks.BulkDownloadOpts{
			Dir:            cmd.String("dir"),
			NumWorkers:     r.config.Download.Workers,
			RateLimit:      r.config.Download.RateLimit,
			Thumbnails:     cmd.Bool("thumbnails"),
			ThumbnailWidth: r.config.Download.ThumbnailWidth,
			SkipExisting:   true,
		},
		Logger:      fileLogger,
		OpenBrowser: r.browser,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
