package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/mongomail/internal/failure"
)

func withEnvFile(t *testing.T, path string) {
	t.Helper()
	prev := EnvFile
	EnvFile = path
	t.Cleanup(func() { EnvFile = prev })
}

func TestLoadEnvFile_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONGOMAIL_TEST_DB=orders\n"), 0o644))
	withEnvFile(t, path)

	t.Setenv("MONGOMAIL_TEST_DB", "")
	require.NoError(t, os.Unsetenv("MONGOMAIL_TEST_DB"))

	require.NoError(t, loadEnvFile(&cobra.Command{}, nil))
	assert.Equal(t, "orders", os.Getenv("MONGOMAIL_TEST_DB"))
}

func TestLoadEnvFile_MissingDefaultIgnored(t *testing.T) {
	withEnvFile(t, filepath.Join(t.TempDir(), ".env"))

	assert.NoError(t, loadEnvFile(&cobra.Command{}, nil))
}

func TestLoadEnvFile_MissingExplicitFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "prod.env")
	withEnvFile(t, missing)

	c := &cobra.Command{}
	c.Flags().String("env-file", ".env", "")
	require.NoError(t, c.Flags().Set("env-file", missing))

	err := loadEnvFile(c, nil)
	assert.ErrorIs(t, err, failure.ErrConfig)
}

func TestLoggedByRun(t *testing.T) {
	assert.False(t, loggedByRun(errors.New("unknown flag")))
	assert.False(t, loggedByRun(failure.Config("missing required settings: MONGO_DB", nil)))
	assert.True(t, loggedByRun(failure.Dump("mongodump exited", nil)))
	assert.True(t, loggedByRun(failure.Notify("status 429", nil)))
}
