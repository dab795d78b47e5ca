package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"retenet/internal/config"
	"retenet/internal/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile on rule/fact file changes and show live match counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runWatch(cmd.Context(), cfg)
	},
}

type countsMsg struct {
	revision uuid.UUID
	counts   map[string]int
}
type watchErrMsg struct{ err error }

type dashboardModel struct {
	revision uuid.UUID
	table    table.Model
	err      error
}

func newDashboardModel() dashboardModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "production", Width: 30},
			{Title: "matches", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	return dashboardModel{table: t, revision: uuid.Nil}
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case countsMsg:
		m.revision = v.revision
		m.err = nil
		m.table.SetRows(countsToRows(v.counts))
		return m, nil
	case watchErrMsg:
		m.err = v.err
		return m, nil
	case tea.KeyMsg:
		switch v.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func countsToRows(counts map[string]int) []table.Row {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, table.Row{name, fmt.Sprint(counts[name])})
	}
	return rows
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m dashboardModel) View() string {
	out := titleStyle.Render("retenet watch") + "  (q to quit)\n\n"
	if m.revision != uuid.Nil {
		out += fmt.Sprintf("revision %s\n\n", m.revision)
	}
	if m.err != nil {
		out += errorStyle.Render(m.err.Error()) + "\n"
		return out
	}
	out += m.table.View()
	return out
}

// runWatch recompiles the network whenever the rule or fact file changes,
// pushing fresh match counts into a live terminal dashboard. The fsnotify
// loop and the bubbletea program run as siblings under one errgroup so
// either side's failure tears down both.
func runWatch(ctx context.Context, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range []string{rulesPath, factsPath} {
		dir := filepath.Dir(path)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	program := tea.NewProgram(newDashboardModel())

	group, ctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	group.Go(func() error {
		// Closing the dashboard (q) ends the watch loop as well.
		defer stopLoop()
		_, err := program.Run()
		return err
	})
	group.Go(func() error {
		defer program.Quit()
		err := watchLoop(loopCtx, watcher, program, cfg)
		if ctx.Err() == nil && loopCtx.Err() != nil {
			return nil
		}
		return err
	})

	return group.Wait()
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, program *tea.Program, cfg *config.Config) error {
	recompile := func() {
		compiled, err := buildNetwork(cfg)
		if err != nil {
			program.Send(watchErrMsg{err})
			return
		}
		program.Send(countsMsg{revision: uuid.New(), counts: compiled.matchCounts()})
	}

	recompile()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base == filepath.Base(rulesPath) || base == filepath.Base(factsPath) {
				logging.For(logging.CategoryCLI).Debug("reloading", zap.String("event", event.String()))
				recompile()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			program.Send(watchErrMsg{watchErr})
		}
	}
}
