package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmahrt/portfolio/internal/auth"
	"github.com/jmahrt/portfolio/internal/store"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

func newCreateAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin [username] [password]",
		Short: "Create the admin account",
		Long:  "Create the admin account. Defaults to admin/admin123; change the password before deploying.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, password := defaultAdminUsername, defaultAdminPassword
			if len(args) > 0 {
				username = args[0]
			}
			if len(args) > 1 {
				password = args[1]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, err := store.Open(cfg.Store.Driver, cfg.Store.DataDir, cfg.Store.SQLitePath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := repo.Close(); closeErr != nil {
					slog.Error("Failed to close repository", "error", closeErr)
				}
			}()

			return createAdmin(cmd.Context(), repo, username, password, cmd.OutOrStdout())
		},
	}
}

func createAdmin(ctx context.Context, repo store.AdminStore, username, password string, out io.Writer) error {
	admin, created, err := auth.EnsureAdmin(ctx, repo, username, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if !created {
		_, err = fmt.Fprintf(out, "Admin %q already exists (id %d)\n", admin.Username, admin.ID)
		return err
	}
	_, err = fmt.Fprintf(out, "Admin %q created (id %d)\n", admin.Username, admin.ID)
	return err
}
