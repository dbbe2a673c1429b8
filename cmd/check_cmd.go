package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kebairia/mongomail/internal/config"
	"github.com/kebairia/mongomail/internal/logger"
	"github.com/kebairia/mongomail/internal/preflight"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and required tools without running a backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Global()

		cfg, err := config.Load(ConfigFile)
		if err != nil {
			return err
		}
		found, err := preflight.Check(nil, cfg.Mongo.DumpBinary)
		if err != nil {
			log.Error("check failed", "error", err)
			return err
		}
		if cfg.UsesVault() {
			if _, err := vaultCredentials(cmd.Context(), cfg); err != nil {
				return err
			}
		}

		log.Info("configuration ok",
			"database", cfg.Mongo.Database,
			"backup_dir", cfg.Backup.Directory,
			"mongodump", found[cfg.Mongo.DumpBinary],
			"auth", cfg.Mongo.Auth.Enabled,
			"vault", cfg.UsesVault(),
		)
		return nil
	},
}
