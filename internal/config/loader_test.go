package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/mongomail/internal/failure"
)

// isolateEnv blanks every variable Load reads so the host environment
// cannot leak into a test. Viper treats empty variables as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, env := range EnvVars() {
		t.Setenv(env, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_DB", "orders")
	t.Setenv("BACKUP_DIR", "/tmp/b")
	t.Setenv("FROM_EMAIL", "backup@example.com")
	t.Setenv("TO_EMAIL", "ops@example.com")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Mongo.Database)
	assert.Equal(t, "/tmp/b", cfg.Backup.Directory)
	assert.Equal(t, DefaultHost, cfg.Mongo.Host)
	assert.Equal(t, DefaultPort, cfg.Mongo.Port)
	assert.Equal(t, DefaultDumpBinary, cfg.Mongo.DumpBinary)
	assert.Equal(t, DefaultSubjectPrefix, cfg.Mail.SubjectPrefix)
	assert.Equal(t, DefaultEndpoint, cfg.Mail.Endpoint)
	assert.Equal(t, DefaultTimestampFormat, cfg.Backup.TimestampFormat)
	assert.Equal(t, 30*time.Minute, cfg.Backup.DumpTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Backup.ArchiveTimeout)
	assert.Equal(t, 60*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Mongo.Auth.Enabled)
	assert.Equal(t, filepath.Join("/tmp/b", DefaultLogFile), cfg.LogFilePath())
}

func TestLoad_Overrides(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("MONGO_HOST", "db.internal")
	t.Setenv("MONGO_PORT", "27018")
	t.Setenv("EMAIL_SUBJECT_PREFIX", "Nightly")
	t.Setenv("DUMP_TIMEOUT", "5m")
	t.Setenv("MAIL_TIMEOUT", "15s")
	t.Setenv("LOG_FILE", "/var/log/mongomail.log")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Mongo.Host)
	assert.Equal(t, "27018", cfg.Mongo.Port)
	assert.Equal(t, "Nightly", cfg.Mail.SubjectPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Backup.DumpTimeout)
	assert.Equal(t, 15*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "/var/log/mongomail.log", cfg.LogFilePath())
}

func TestLoad_MissingRequired(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MONGO_DB", "orders")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConfig)
	assert.ErrorIs(t, err, ErrValidateConfig)
	for _, env := range []string{"BACKUP_DIR", "FROM_EMAIL", "TO_EMAIL", "SENDGRID_API_KEY"} {
		assert.Contains(t, err.Error(), env)
	}
	assert.NotContains(t, err.Error(), "MONGO_DB")
}

func TestLoad_AuthVariantRequiresCredentials(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("MONGO_AUTH_ENABLED", "true")
	t.Setenv("MONGO_USER", "backup")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConfig)
	assert.Contains(t, err.Error(), "MONGO_PASSWORD")
	assert.Contains(t, err.Error(), "MONGO_AUTH_DB")
	assert.NotContains(t, err.Error(), "MONGO_USER")
}

func TestLoad_AuthVariantComplete(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("MONGO_AUTH_ENABLED", "true")
	t.Setenv("MONGO_USER", "backup")
	t.Setenv("MONGO_PASSWORD", "hunter2")
	t.Setenv("MONGO_AUTH_DB", "admin")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Mongo.Auth.Enabled)
	assert.Equal(t, "backup", cfg.Mongo.Auth.Username)
	assert.Equal(t, "hunter2", cfg.Mongo.Auth.Password)
	assert.Equal(t, "admin", cfg.Mongo.Auth.Database)
	assert.False(t, cfg.UsesVault())
}

func TestLoad_VaultSuppliesCredentials(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("MONGO_AUTH_ENABLED", "true")
	t.Setenv("MONGO_AUTH_DB", "admin")
	t.Setenv("MONGO_VAULT_ROLE", "database/creds/backup")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.UsesVault())
	assert.Equal(t, "database/creds/backup", cfg.Vault.CredentialsPath)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	isolateEnv(t)
	yaml := `
mongo:
  database: inventory
  host: file-host
backup:
  directory: /srv/backups
mail:
  from: a@example.com
  to: b@example.com
  api_key: SG.file
  subject_prefix: From File
`
	path := filepath.Join(t.TempDir(), "mongomail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("MONGO_HOST", "env-host")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "inventory", cfg.Mongo.Database)
	assert.Equal(t, "env-host", cfg.Mongo.Host)
	assert.Equal(t, "/srv/backups", cfg.Backup.Directory)
	assert.Equal(t, "From File", cfg.Mail.SubjectPrefix)
}

func TestLoad_MissingFile(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadConfig)
	assert.ErrorIs(t, err, failure.ErrConfig)
}
