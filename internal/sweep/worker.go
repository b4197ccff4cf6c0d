package sweep

import (
	"context"

	"github.com/riverqueue/river"
)

// Args is the payload for one expiry sweep run. The job carries no data;
// the sweeper reads everything it needs from storage.
type Args struct{}

func (Args) Kind() string { return "expire_sweep" }

// Expirer is the contract the worker drives; implemented by
// services.Sweeper.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Worker runs the periodic expiry sweep through River. The sweep itself
// is idempotent, so overlapping or retried runs are harmless.
type Worker struct {
	river.WorkerDefaults[Args]
	expirer Expirer
}

func NewWorker(expirer Expirer) *Worker {
	return &Worker{expirer: expirer}
}

func (w *Worker) Work(ctx context.Context, _ *river.Job[Args]) error {
	_, err := w.expirer.ExpireOverdue(ctx)
	return err
}
