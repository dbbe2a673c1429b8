package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kebairia/mongomail/internal/failure"
)

// ErrLoadConfig indicates a failure to read or parse the configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that a mandatory setting is absent.
var ErrValidateConfig = errors.New("configuration validation failed")

// Config is the whole run configuration, assembled once at startup.
type Config struct {
	Mongo  MongoConfig  `mapstructure:"mongo"  yaml:"mongo"`
	Backup BackupConfig `mapstructure:"backup" yaml:"backup"`
	Mail   MailConfig   `mapstructure:"mail"   yaml:"mail"`
	Log    LogConfig    `mapstructure:"log"    yaml:"log"`
	Vault  VaultConfig  `mapstructure:"vault"  yaml:"vault"`
}

// MongoConfig describes the database to dump.
type MongoConfig struct {
	Database   string     `mapstructure:"database"    yaml:"database"`
	Host       string     `mapstructure:"host"        yaml:"host,omitempty"`
	Port       string     `mapstructure:"port"        yaml:"port,omitempty"`
	DumpBinary string     `mapstructure:"dump_binary" yaml:"dump_binary,omitempty"`
	Auth       AuthConfig `mapstructure:"auth"        yaml:"auth"`
}

// AuthConfig holds the authenticated-variant settings.
type AuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Database string `mapstructure:"database" yaml:"database,omitempty"`
}

// BackupConfig contains the backup directory and stage bounds.
type BackupConfig struct {
	Directory       string        `mapstructure:"directory"        yaml:"directory"`
	TimestampFormat string        `mapstructure:"timestamp_format" yaml:"timestamp_format"`
	DumpTimeout     time.Duration `mapstructure:"dump_timeout"     yaml:"dump_timeout"`
	ArchiveTimeout  time.Duration `mapstructure:"archive_timeout"  yaml:"archive_timeout"`
}

// MailConfig holds SendGrid delivery settings.
type MailConfig struct {
	From          string        `mapstructure:"from"           yaml:"from"`
	To            string        `mapstructure:"to"             yaml:"to"`
	APIKey        string        `mapstructure:"api_key"        yaml:"api_key"`
	SubjectPrefix string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	Endpoint      string        `mapstructure:"endpoint"       yaml:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

// LogConfig controls the run log.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file"  yaml:"file"`
}

// VaultConfig enables fetching MongoDB credentials from HashiCorp Vault.
type VaultConfig struct {
	Address         string `mapstructure:"address"          yaml:"address,omitempty"`
	RoleID          string `mapstructure:"role_id"          yaml:"role_id,omitempty"`
	RoleName        string `mapstructure:"role_name"        yaml:"role_name,omitempty"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
}

const (
	DefaultHost            = "localhost"
	DefaultPort            = "27017"
	DefaultSubjectPrefix   = "MongoDB Backup"
	DefaultDumpBinary      = "mongodump"
	DefaultTimestampFormat = "2006-01-02_15-04-05"
	DefaultEndpoint        = "https://api.sendgrid.com/v3/mail/send"
	DefaultLogFile         = "backup.log"
)

type binding struct {
	key string
	env string
	def any
}

// bindings maps every config key to its environment variable.
var bindings = []binding{
	{"mongo.database", "MONGO_DB", nil},
	{"mongo.host", "MONGO_HOST", DefaultHost},
	{"mongo.port", "MONGO_PORT", DefaultPort},
	{"mongo.dump_binary", "MONGODUMP_BIN", DefaultDumpBinary},
	{"mongo.auth.enabled", "MONGO_AUTH_ENABLED", false},
	{"mongo.auth.username", "MONGO_USER", nil},
	{"mongo.auth.password", "MONGO_PASSWORD", nil},
	{"mongo.auth.database", "MONGO_AUTH_DB", nil},

	{"backup.directory", "BACKUP_DIR", nil},
	{"backup.timestamp_format", "TIMESTAMP_FORMAT", DefaultTimestampFormat},
	{"backup.dump_timeout", "DUMP_TIMEOUT", 30 * time.Minute},
	{"backup.archive_timeout", "ARCHIVE_TIMEOUT", 30 * time.Minute},

	{"mail.from", "FROM_EMAIL", nil},
	{"mail.to", "TO_EMAIL", nil},
	{"mail.api_key", "SENDGRID_API_KEY", nil},
	{"mail.subject_prefix", "EMAIL_SUBJECT_PREFIX", DefaultSubjectPrefix},
	{"mail.endpoint", "SENDGRID_ENDPOINT", DefaultEndpoint},
	{"mail.timeout", "MAIL_TIMEOUT", 60 * time.Second},

	{"log.level", "LOG_LEVEL", "info"},
	{"log.file", "LOG_FILE", DefaultLogFile},

	{"vault.address", "VAULT_ADDR", nil},
	{"vault.role_id", "VAULT_ROLE_ID", nil},
	{"vault.role_name", "VAULT_ROLE_NAME", nil},
	{"vault.credentials_path", "MONGO_VAULT_ROLE", nil},
}

// EnvVars lists every environment variable Load reads.
func EnvVars() []string {
	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.env)
	}
	return out
}

// Load assembles a Config from the environment and, when path is not empty,
// a YAML file. Environment variables take precedence over the file.
// Any failure is a *failure.Error of kind config.
func Load(path string) (Config, error) {
	v := viper.New()
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return Config{}, failure.Config("bind "+b.env, fmt.Errorf("%w: %v", ErrLoadConfig, err))
		}
		if b.def != nil {
			v.SetDefault(b.key, b.def)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, failure.Config("read "+path, fmt.Errorf("%w: %v", ErrLoadConfig, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, failure.Config("unmarshal config", fmt.Errorf("%w: %v", ErrLoadConfig, err))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every mandatory setting is present. Values are not
// otherwise inspected.
func (c Config) Validate() error {
	var missing []string
	require := func(value, env string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}

	require(c.Mongo.Database, "MONGO_DB")
	require(c.Backup.Directory, "BACKUP_DIR")
	require(c.Mail.From, "FROM_EMAIL")
	require(c.Mail.To, "TO_EMAIL")
	require(c.Mail.APIKey, "SENDGRID_API_KEY")

	if c.Mongo.Auth.Enabled {
		// Vault supplies username and password when a role is configured.
		if !c.UsesVault() {
			require(c.Mongo.Auth.Username, "MONGO_USER")
			require(c.Mongo.Auth.Password, "MONGO_PASSWORD")
		}
		require(c.Mongo.Auth.Database, "MONGO_AUTH_DB")
	}

	if len(missing) > 0 {
		return failure.Config(
			"missing required settings: "+strings.Join(missing, ", "),
			ErrValidateConfig,
		)
	}
	return nil
}

// UsesVault reports whether MongoDB credentials come from Vault.
func (c Config) UsesVault() bool {
	return c.Mongo.Auth.Enabled && c.Vault.CredentialsPath != ""
}

// LogFilePath returns the log file location; relative names live in the
// backup directory.
func (c Config) LogFilePath() string {
	if filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.Backup.Directory, c.Log.File)
}
