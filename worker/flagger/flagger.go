package flagger

import (
	"context"
	"time"

	"forge/core"
	"forge/worker"

	"github.com/fox-one/pkg/logger"
)

// Worker sweeps debt holders and opens an auction over every insolvent
// account without one. The keeper address collects the initiator bonus.
type Worker struct {
	worker.TickWorker
	Config       *core.Config
	Debt         core.ILedgerReader
	Guard        core.ISolvencyService
	AuctionStore core.IAuctionStore
	Auctions     core.IAuctionService
}

// New new flagger worker
func New(cfg *core.Config, debt core.ILedgerReader, guard core.ISolvencyService, auctionStore core.IAuctionStore, auctions core.IAuctionService) *Worker {
	return &Worker{
		TickWorker: worker.TickWorker{
			Delay:    5 * time.Second,
			ErrDelay: 10 * time.Second,
		},
		Config:       cfg,
		Debt:         debt,
		Guard:        guard,
		AuctionStore: auctionStore,
		Auctions:     auctions,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "flagger")

	addresses, err := w.Debt.Addresses(ctx)
	if err != nil {
		log.WithError(err).Errorln("list debt addresses")
		return err
	}

	for _, address := range addresses {
		insolvent, err := w.Guard.IsInsolvent(ctx, address)
		if err != nil {
			log.WithError(err).WithField("address", address).Errorln("solvency check")
			continue
		}

		if !insolvent {
			continue
		}

		existing, err := w.AuctionStore.FindOpenByAddress(ctx, address)
		if err != nil {
			log.WithError(err).Errorln("find open auction")
			continue
		}

		if existing.ID != 0 {
			continue
		}

		auction, err := w.Auctions.Open(ctx, w.Config.App.Keeper, address, time.Now())
		if err != nil {
			log.WithError(err).WithField("address", address).Errorln("open auction")
			continue
		}

		log.WithField("address", address).Infof("flagged, auction %d opened", auction.ID)
	}

	return nil
}
