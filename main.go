// @title userhub API
// @version 1.0
// @description User and admin authentication, sessions and user management.
// @BasePath /
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("userhub exited")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "userhub",
		Short:         "User and admin authentication backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")

	root.AddCommand(
		newServeCmd(&envFile),
		newCreateAdminCmd(&envFile),
		newMigrateCmd(&envFile),
	)
	return root
}
