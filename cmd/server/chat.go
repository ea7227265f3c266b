package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmahrt/portfolio/internal/chat"
	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/repl"
	"github.com/jmahrt/portfolio/internal/store"
)

func newChatCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Albert from the terminal",
		Long: "Chat with Albert from the terminal. Messages go to a running server's /api/chat " +
			"first and fall back to a local inference pipeline.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Keep JSON logs off the terminal the REPL is drawing on.
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var remote *chat.RemoteClient
			var projects []domain.Project
			if endpoint != "" {
				remote = chat.NewRemoteClient(endpoint, nil)
				if projects, err = remote.Projects(ctx); err != nil {
					logger.Warn("Failed to fetch projects from server", "error", err)
				}
			}
			if projects == nil {
				projects = localProjects(ctx, cfg.Store.Driver, cfg.Store.DataDir, cfg.Store.SQLitePath)
			}

			local, err := newPipeline(cfg, staticProjects(projects), logger)
			if err != nil {
				return err
			}

			newSession := func(n chat.Notifier) *chat.Session {
				sc := chat.SessionConfig{Local: local, Notifier: n, Logger: logger}
				if remote != nil {
					sc.Remote = remote
				}
				return chat.NewSession(sc)
			}

			historyFile := ""
			if home, err := os.UserHomeDir(); err == nil {
				historyFile = filepath.Join(home, ".portfolio", "chat_history")
			}
			line := repl.NewLiner(historyFile)
			defer func() {
				if err := repl.SaveHistory(line, historyFile); err != nil {
					logger.Warn("Failed to save chat history", "error", err)
				}
				_ = line.Close()
			}()

			return repl.New(line, cmd.OutOrStdout(), cfg.Chat.Persona, newSession).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "base URL of a running server; empty disables the direct path")
	return cmd
}

// localProjects reads projects from the configured store, or the seed data
// when the store cannot be opened.
func localProjects(ctx context.Context, driver, dataDir, sqlitePath string) []domain.Project {
	repo, err := store.Open(driver, dataDir, sqlitePath)
	if err != nil {
		return domain.DefaultProjects()
	}
	defer func() { _ = repo.Close() }()
	projects, err := repo.ListProjects(ctx)
	if err != nil || len(projects) == 0 {
		return domain.DefaultProjects()
	}
	return projects
}

// staticProjects is a fixed project list for the system prompt.
type staticProjects []domain.Project

func (s staticProjects) ListProjects(context.Context) ([]domain.Project, error) {
	return s, nil
}
