package auditor

import (
	"context"
	"time"

	"forge/core"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker cross-checks every pool's token totals against the per-account
// balance sums on a fixed schedule. A divergence panics the process.
type Worker struct {
	cron       *cron.Cron
	collateral core.ILedgerService
	debt       core.ILedgerService
}

// New new auditor worker
func New(cfg *core.Config, collateral, debt core.ILedgerService) *Worker {
	l, _ := time.LoadLocation(cfg.App.Location)

	w := &Worker{
		cron:       cron.New(cron.WithLocation(l)),
		collateral: collateral,
		debt:       debt,
	}

	w.cron.AddFunc("@every 10m", func() {
		w.onWork(context.Background())
	})

	return w
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	w.cron.Start()
	defer w.cron.Stop()

	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) onWork(ctx context.Context) {
	log := logger.FromContext(ctx).WithField("worker", "auditor")

	if err := w.collateral.Audit(ctx); err != nil {
		log.WithError(err).Errorln("collateral audit")
	}

	if err := w.debt.Audit(ctx); err != nil {
		log.WithError(err).Errorln("debt audit")
	}
}
