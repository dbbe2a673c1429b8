package operations

import (
	"context"
	"time"

	"github.com/kebairia/mongomail/internal/failure"
	"github.com/kebairia/mongomail/internal/logger"
)

// runObserver logs stage progress. A failure is logged once, at error level.
type runObserver struct {
	log    logger.Logger
	logged bool
}

func (o *runObserver) BeforePipeline(_ context.Context, _, name string) error {
	o.log.Info("backup started", "pipeline", name)
	return nil
}

func (o *runObserver) AfterPipeline(_ context.Context, _, name string, err error, d time.Duration) error {
	if err == nil {
		o.log.Info("backup completed", "pipeline", name, "duration", d)
		return nil
	}
	// Cancellation between stages never reaches AfterStage.
	if !o.logged {
		o.log.Error("backup failed", "pipeline", name, "kind", failure.KindOf(err), "error", err)
	}
	return nil
}

func (o *runObserver) BeforeStage(_ context.Context, _ string, _ int, stage string) error {
	o.log.Debug("stage started", "stage", stage)
	return nil
}

func (o *runObserver) AfterStage(_ context.Context, _ string, _ int, stage string, err error, d time.Duration) error {
	if err != nil {
		o.logged = true
		o.log.Error("backup failed", "stage", stage, "kind", failure.KindOf(err), "error", err, "duration", d)
		return nil
	}
	o.log.Info("stage completed", "stage", stage, "duration", d)
	return nil
}
