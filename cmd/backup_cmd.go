package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/mongomail/internal/config"
	"github.com/kebairia/mongomail/internal/database"
	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
	"github.com/kebairia/mongomail/internal/operations"
	"github.com/kebairia/mongomail/internal/vault"
)

// runBackup performs one backup-and-notify run.
func runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Backup.Directory, 0o755); err != nil {
		return failure.Config("create backup directory", err)
	}
	log, err := logger.New(logger.Options{
		Level:    cfg.Log.Level,
		FilePath: cfg.LogFilePath(),
	})
	if err != nil {
		return failure.Config("set up logging", err)
	}

	opts := []operations.Option{operations.WithLogger(log)}
	if cfg.UsesVault() {
		creds, err := vaultCredentials(ctx, cfg)
		if err != nil {
			return err
		}
		opts = append(opts, operations.WithMongoOptions(database.WithMongoCredentialsFunc(creds)))
	}

	om, err := operations.NewOperationManager(cfg, opts...)
	if err != nil {
		return err
	}

	_, err = om.Run(ctx)
	return err
}

// vaultCredentials logs in to Vault and returns a lookup of dynamic MongoDB
// credentials, resolved when the dump starts.
func vaultCredentials(ctx context.Context, cfg config.Config) (database.CredentialsFunc, error) {
	client, err := vault.NewClient(ctx,
		vault.WithAddress(cfg.Vault.Address),
		vault.WithAppRole(cfg.Vault.RoleID, cfg.Vault.RoleName),
	)
	if err != nil {
		return nil, failure.Config("vault client init", err)
	}

	path := cfg.Vault.CredentialsPath
	return func(ctx context.Context) (string, string, error) {
		creds, err := client.GetDynamicCredentials(ctx, path)
		if err != nil {
			return "", "", err
		}
		return creds.Username, creds.Password, nil
	}, nil
}
