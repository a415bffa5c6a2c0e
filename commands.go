package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/redact"
)

var errMigrateNeedsPostgres = errors.New("migrate needs STORE=postgres")

func newCreateAdminCmd(envFile *string) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin identity if it does not exist",
		Long:  "Creates an admin from flags, falling back to ADMIN_EMAIL, ADMIN_NAME and ADMIN_PASSWORD.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if email == "" {
				email = cfg.Admin.Email
			}
			if name == "" {
				name = cfg.Admin.Name
			}
			if password == "" {
				password = cfg.Admin.Password
			}

			if err := a.auth.EnsureAdmin(cmd.Context(), email, name, password); err != nil {
				return err
			}
			a.log.WithField("email", redact.Email(email)).Info("admin ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

// newMigrateCmd only opens Postgres; it needs no JWT or Redis settings.
func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return errMigrateNeedsPostgres
			}

			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			a := &app{cfg: cfg, log: log}
			defer a.Close()

			if err := a.openStore(cmd.Context()); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
