package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
)

var (
	// ConfigFile is an optional YAML file; environment variables override it.
	ConfigFile string
	// EnvFile is a dotenv file loaded before the configuration.
	EnvFile string

	// rootCmd is the base command for mongomail.
	rootCmd = &cobra.Command{
		Use:   "mongomail",
		Short: "Back up a MongoDB database and mail the archive",
		Long: `mongomail dumps one MongoDB database with mongodump, zips the dump,
sends the archive through SendGrid and prunes older artifacts.

All settings come from the environment (optionally a .env file).`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadEnvFile,
		RunE:              runBackup,
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel the running stage.
func Execute() error {
	if _, err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !loggedByRun(err) {
		logger.Global().Error("backup failed", "kind", failure.KindOf(err), "error", err)
	}
	return err
}

// loggedByRun reports whether the operation manager already logged err.
func loggedByRun(err error) bool {
	switch failure.KindOf(err) {
	case "", failure.KindConfig:
		return false
	}
	return true
}

func loadEnvFile(cmd *cobra.Command, _ []string) error {
	err := godotenv.Load(EnvFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	return failure.Config("load env file "+EnvFile, err)
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "", "path to optional YAML config file")
	rootCmd.PersistentFlags().
		StringVar(&EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(checkCmd)
}
