package operations

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
	"github.com/kebairia/mongomail/internal/mailer"
	"github.com/kebairia/mongomail/internal/pipeline"
	"github.com/kebairia/mongomail/internal/preflight"
)

// ErrMailRejected indicates a non-2xx answer from the mail API.
var ErrMailRejected = errors.New("mail api rejected the message")

// State is what one run has produced so far.
type State struct {
	RunID     string
	Timestamp string
	StartedAt time.Time

	DumpDir      string
	DumpSize     int64
	ArchivePath  string
	Encoded      string
	Checksum     string
	ArchiveSize  int64
	ResponsePath string
	StatusCode   int
	Cleanup      CleanupReport
}

// Run executes preflight, takes the backup directory lock, then runs dump,
// archive, encode, notify and cleanup in order. The first failure stops the
// run and leaves every artifact produced so far in place.
func (om *OperationManager) Run(ctx context.Context) (State, error) {
	started := om.now()
	ts := started.Format(om.cfg.Backup.TimestampFormat)
	dumpDir, archive, response := om.paths(ts)

	initial := State{
		RunID:        om.runID,
		Timestamp:    ts,
		StartedAt:    started,
		DumpDir:      dumpDir,
		ArchivePath:  archive,
		ResponsePath: response,
	}

	r := &run{om: om, log: om.log.With("database", om.cfg.Mongo.Database, "timestamp", ts)}
	defer r.unlock()

	p := &pipeline.Pipeline[State]{
		Name: "backup " + om.cfg.Mongo.Database,
		Stages: []pipeline.Stage[State]{
			{Name: "preflight", Run: r.preflight},
			{Name: "lock", Run: r.acquireLock},
			{Name: "dump", Run: r.dump},
			{Name: "archive", Timeout: om.cfg.Backup.ArchiveTimeout, Run: r.archive},
			{Name: "encode", Run: r.encode},
			{Name: "notify", Run: r.notify},
			{Name: "cleanup", Run: r.cleanup},
		},
	}
	return p.Run(ctx, initial, &pipeline.RunOptions{
		Observer: &runObserver{log: r.log},
		RunID:    om.runID,
	})
}

// run carries the per-run logger and lock into the stage functions.
type run struct {
	om   *OperationManager
	log  logger.Logger
	lock *RunLock
}

func (r *run) preflight(_ context.Context, s State) (State, error) {
	found, err := preflight.Check(r.om.lookPath, r.om.dumper.Tool())
	if err != nil {
		return s, err
	}
	for tool, path := range found {
		r.log.Debug("tool found", "tool", tool, "path", path)
	}
	return s, nil
}

// acquireLock runs after preflight so a run that cannot start leaves the
// backup directory untouched.
func (r *run) acquireLock(_ context.Context, s State) (State, error) {
	lock := NewRunLock(r.om.cfg.Backup.Directory)
	if err := lock.Acquire(); err != nil {
		return s, err
	}
	r.lock = lock
	return s, nil
}

func (r *run) unlock() {
	if r.lock == nil {
		return
	}
	if err := r.lock.Release(); err != nil {
		r.log.Warn("release lock", "error", err)
	}
	r.lock = nil
}

func (r *run) dump(ctx context.Context, s State) (State, error) {
	started := time.Now()
	if err := r.om.dumper.Dump(ctx, s.DumpDir); err != nil {
		return s, err
	}

	size, err := DirSize(s.DumpDir)
	if err != nil {
		return s, failure.Dump("measure dump directory", err)
	}
	s.DumpSize = size

	completed := time.Now()
	meta := Metadata{
		Engine:      r.om.dumper.GetEngine(),
		Database:    r.om.dumper.GetName(),
		Host:        r.om.cfg.Mongo.Host,
		Port:        r.om.cfg.Mongo.Port,
		RunID:       s.RunID,
		Timestamp:   s.Timestamp,
		Status:      "success",
		StartedAt:   started,
		CompletedAt: completed,
		DurationMS:  completed.Sub(started).Milliseconds(),
		SizeBytes:   size,
	}
	if r.om.cfg.Mongo.Auth.Enabled {
		meta.AuthDatabase = r.om.cfg.Mongo.Auth.Database
	}
	if err := meta.Write(s.DumpDir); err != nil {
		return s, failure.Dump("write metadata", err)
	}
	return s, nil
}

func (r *run) archive(ctx context.Context, s State) (State, error) {
	if err := ZipDirectory(ctx, s.DumpDir, s.ArchivePath); err != nil {
		return s, err
	}
	r.log.Info("archive created", "path", s.ArchivePath)
	return s, nil
}

func (r *run) encode(_ context.Context, s State) (State, error) {
	enc, err := EncodeFile(s.ArchivePath)
	if err != nil {
		return s, err
	}
	s.Encoded = enc.Content
	s.Checksum = enc.SHA256
	s.ArchiveSize = enc.Size
	r.log.Info("archive encoded", "size_bytes", enc.Size, "sha256", enc.SHA256)
	return s, nil
}

func (r *run) notify(ctx context.Context, s State) (State, error) {
	cfg := r.om.cfg
	archiveName := filepath.Base(s.ArchivePath)

	report := mailer.BackupReport{
		Database:    cfg.Mongo.Database,
		Timestamp:   s.Timestamp,
		Address:     net.JoinHostPort(cfg.Mongo.Host, cfg.Mongo.Port),
		ArchiveName: archiveName,
		SizeBytes:   s.ArchiveSize,
		SHA256:      s.Checksum,
		RunID:       s.RunID,
	}
	if cfg.Mongo.Auth.Enabled {
		report.AuthDatabase = cfg.Mongo.Auth.Database
	}
	html, err := mailer.RenderHTML(report)
	if err != nil {
		return s, failure.Notify("build email body", err)
	}

	resp, err := r.om.mail.Send(ctx, mailer.Message{
		From:        cfg.Mail.From,
		To:          cfg.Mail.To,
		Subject:     mailer.Subject(cfg.Mail.SubjectPrefix, cfg.Mongo.Database, s.Timestamp),
		HTML:        html,
		Attachments: []mailer.Attachment{mailer.ArchiveAttachment(archiveName, s.Encoded)},
	})
	if err != nil {
		return s, failure.Notify("send email", err)
	}
	s.StatusCode = resp.StatusCode

	if err := os.WriteFile(s.ResponsePath, resp.Body, 0o644); err != nil {
		return s, failure.Notify("write response file", err)
	}
	if !resp.OK() {
		return s, failure.Notify(
			fmt.Sprintf("status %d, response saved to %s", resp.StatusCode, s.ResponsePath),
			ErrMailRejected,
		)
	}
	r.log.Info("email sent", "status", resp.StatusCode, "to", cfg.Mail.To)
	return s, nil
}

func (r *run) cleanup(_ context.Context, s State) (State, error) {
	s.Cleanup = Cleanup(r.log, r.om.cfg.Backup.Directory, s.DumpDir, s.ArchivePath)
	if s.Cleanup.Err != nil {
		r.log.Warn("cleanup incomplete", "removed", len(s.Cleanup.Removed), "error", s.Cleanup.Err)
		return s, nil
	}
	r.log.Info("cleanup finished", "removed", len(s.Cleanup.Removed))
	return s, nil
}
