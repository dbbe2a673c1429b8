package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/kebairia/mongomail/internal/config"
	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
)

const EngineMongoDB = "mongodb"

// MongoDBOption defines a functional option for configuring a MongoDB instance.
type MongoDBOption func(*MongoDB)

// MongoDB dumps one MongoDB database with mongodump.
type MongoDB struct {
	Username     string
	Password     string
	AuthDatabase string
	Database     string
	Host         string
	Port         string
	Binary       string
	Timeout      time.Duration
	Logger       logger.Logger

	runner      Runner
	credentials CredentialsFunc
}

var _ Dumper = (*MongoDB)(nil)

// NewMongoDB creates a MongoDB dumper from cfg plus any overrides. Credentials
// are only taken from cfg in the authenticated variant.
func NewMongoDB(cfg config.Config, opts ...MongoDBOption) *MongoDB {
	m := &MongoDB{
		Database: cfg.Mongo.Database,
		Host:     cfg.Mongo.Host,
		Port:     cfg.Mongo.Port,
		Binary:   cfg.Mongo.DumpBinary,
		Timeout:  cfg.Backup.DumpTimeout,
		Logger:   logger.Global(),
		runner:   ExecRunner{},
	}
	if cfg.Mongo.Auth.Enabled {
		m.Username = cfg.Mongo.Auth.Username
		m.Password = cfg.Mongo.Auth.Password
		m.AuthDatabase = cfg.Mongo.Auth.Database
	}
	if m.Binary == "" {
		m.Binary = config.DefaultDumpBinary
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithMongoCredentialsFunc defers credential lookup to dump time.
func WithMongoCredentialsFunc(fn CredentialsFunc) MongoDBOption {
	return func(m *MongoDB) {
		m.credentials = fn
	}
}

// WithMongoTimeout bounds the mongodump run. Zero disables the bound.
func WithMongoTimeout(d time.Duration) MongoDBOption {
	return func(m *MongoDB) {
		m.Timeout = d
	}
}

func WithMongoLogger(log logger.Logger) MongoDBOption {
	return func(m *MongoDB) {
		if log != nil {
			m.Logger = log
		}
	}
}

func WithMongoRunner(r Runner) MongoDBOption {
	return func(m *MongoDB) {
		if r != nil {
			m.runner = r
		}
	}
}

func (m *MongoDB) GetName() string {
	return m.Database
}

func (m *MongoDB) GetEngine() string {
	return EngineMongoDB
}

func (m *MongoDB) Tool() string {
	return m.Binary
}

// Address returns host:port.
func (m *MongoDB) Address() string {
	return net.JoinHostPort(m.Host, m.Port)
}

// Authenticated reports whether the dump runs with credentials.
func (m *MongoDB) Authenticated() bool {
	return m.AuthDatabase != "" || m.Username != "" || m.credentials != nil
}

// Dump runs mongodump into outDir. It fails unless mongodump exits cleanly
// and outDir exists afterwards. A partial outDir is left in place.
func (m *MongoDB) Dump(ctx context.Context, outDir string) error {
	log := m.Logger.With("database", m.Database, "engine", EngineMongoDB)

	if m.credentials != nil {
		user, pass, err := m.credentials(ctx)
		if err != nil {
			return failure.Dump("resolve credentials", err)
		}
		m.Username, m.Password = user, pass
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.Timeout, ErrTimeout)
		defer cancel()
	}

	args := m.dumpArgs(outDir)
	stdout := logger.NewLineWriter(log, "mongodump output", "stream", "stdout")
	stderr := logger.NewLineWriter(log, "mongodump output", "stream", "stderr")

	log.Info("dump started",
		"address", m.Address(),
		"path", outDir,
		"command", strings.Join(append([]string{m.Binary}, logger.RedactArgs(args)...), " "),
	)
	startTime := time.Now()
	err := m.runner.Run(ctx, m.Binary, args, stdout, stderr)
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, ErrTimeout) {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, m.Timeout, err)
		}
		return failure.Dump(m.Binary+" failed", err)
	}

	info, statErr := os.Stat(outDir)
	if statErr != nil || !info.IsDir() {
		return failure.Dump(
			m.Binary+" reported success but produced no output",
			fmt.Errorf("%w: %s", ErrMissingOutput, outDir),
		)
	}

	log.Info("dump completed",
		"path", outDir,
		"duration", time.Since(startTime).String(),
	)
	return nil
}

func (m *MongoDB) dumpArgs(outDir string) []string {
	args := []string{
		"--host=" + m.Host,
		"--port=" + m.Port,
		"--db=" + m.Database,
		"--out=" + outDir,
	}
	if m.Authenticated() {
		args = append(args,
			"--username="+m.Username,
			"--password="+m.Password,
			"--authenticationDatabase="+m.AuthDatabase,
		)
	}
	return args
}
