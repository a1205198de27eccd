package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aau-transit/bustrack/internal/auth"
	"github.com/aau-transit/bustrack/internal/config"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the bus schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := schedule.Default()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), catalog.Entries())
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), schedule.FormatTable(catalog.Entries()))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the *.up.sql migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if path == "" {
				path = cfg.MigrationsPath
			}
			if databaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}
			ctx := cmd.Context()
			conn, err := db.Init(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.RunMigrations(ctx, conn, path); err != nil {
				return err
			}
			log.Info().Str("path", path).Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default DATABASE_URL)")
	cmd.Flags().StringVar(&path, "path", "", "directory holding the migrations (default MIGRATIONS_PATH)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var skipPolicy bool

	cmd := &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print an argon2id hash for seeding accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !skipPolicy {
				if err := auth.ValidatePassword(args[0]); err != nil {
					return err
				}
			}
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipPolicy, "skip-policy", false, "hash passwords that fail the password policy")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
