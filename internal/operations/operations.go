package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kebairia/mongomail/internal/config"
	"github.com/kebairia/mongomail/internal/database"
	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
	"github.com/kebairia/mongomail/internal/mailer"
	"github.com/kebairia/mongomail/internal/preflight"
)

const (
	// ArchiveExt marks archive files in the backup directory.
	ArchiveExt = ".zip"
	// ResponsePattern matches stored mail API response file names.
	ResponsePattern = "sendgrid_response_*.json"
)

// Artifact names; the timestamp ties one run's files together.
func DumpDirName(db, ts string) string { return fmt.Sprintf("%s_dump_%s", db, ts) }
func ArchiveName(db, ts string) string { return fmt.Sprintf("%s_backup_%s%s", db, ts, ArchiveExt) }
func ResponseName(ts string) string    { return fmt.Sprintf("sendgrid_response_%s.json", ts) }

// Mailer delivers a notification message.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (*mailer.Response, error)
}

// Option configures an OperationManager.
type Option func(*OperationManager)

// OperationManager runs the backup-and-notify workflow for one database.
type OperationManager struct {
	cfg      config.Config
	log      logger.Logger
	dumper   database.Dumper
	mail     Mailer
	now      func() time.Time
	lookPath preflight.LookPathFunc
	runID    string

	mongoOpts []database.MongoDBOption
}

// WithLogger sets the logger; defaults to logger.Global().
func WithLogger(log logger.Logger) Option {
	return func(om *OperationManager) {
		if log != nil {
			om.log = log
		}
	}
}

// WithDumper replaces the mongodump-backed dumper.
func WithDumper(d database.Dumper) Option {
	return func(om *OperationManager) { om.dumper = d }
}

// WithMongoOptions passes extra options to the default mongodump dumper.
func WithMongoOptions(opts ...database.MongoDBOption) Option {
	return func(om *OperationManager) { om.mongoOpts = append(om.mongoOpts, opts...) }
}

// WithMailer replaces the SendGrid client.
func WithMailer(m Mailer) Option {
	return func(om *OperationManager) { om.mail = m }
}

// WithClock sets the time source used for the run timestamp.
func WithClock(now func() time.Time) Option {
	return func(om *OperationManager) { om.now = now }
}

// WithLookPath sets how preflight resolves executables.
func WithLookPath(fn preflight.LookPathFunc) Option {
	return func(om *OperationManager) { om.lookPath = fn }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(om *OperationManager) { om.runID = id }
}

// NewOperationManager builds a manager from cfg. Without WithDumper and
// WithMailer it dumps with mongodump and sends through SendGrid. Every log
// line it writes carries the run id.
func NewOperationManager(cfg config.Config, opts ...Option) (*OperationManager, error) {
	om := &OperationManager{
		cfg: cfg,
		log: logger.Global(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(om)
	}
	if om.cfg.Backup.TimestampFormat == "" {
		om.cfg.Backup.TimestampFormat = config.DefaultTimestampFormat
	}
	if om.runID == "" {
		om.runID = uuid.NewString()
	}
	om.log = om.log.With("run_id", om.runID)

	if om.dumper == nil {
		mongoOpts := append([]database.MongoDBOption{database.WithMongoLogger(om.log)}, om.mongoOpts...)
		om.dumper = database.NewMongoDB(cfg, mongoOpts...)
	}
	if om.mail == nil {
		client, err := mailer.NewClient(mailer.Config{
			Endpoint: cfg.Mail.Endpoint,
			APIKey:   cfg.Mail.APIKey,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			return nil, failure.Config("mail client", err)
		}
		om.mail = client
	}
	return om, nil
}

// paths derives this run's artifact locations.
func (om *OperationManager) paths(ts string) (dumpDir, archive, response string) {
	dir := om.cfg.Backup.Directory
	db := om.cfg.Mongo.Database
	return filepath.Join(dir, DumpDirName(db, ts)),
		filepath.Join(dir, ArchiveName(db, ts)),
		filepath.Join(dir, ResponseName(ts))
}
