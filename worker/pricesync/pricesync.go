package pricesync

import (
	"context"
	"time"

	"forge/core"
	"forge/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	refreshInterval = time.Minute
	// prices older than this stop feeding valuations
	staleHorizon = 24 * time.Hour
)

// Worker keeps a fresh posted price for every registered token
type Worker struct {
	worker.TickWorker
	DB         core.Transactor
	TokenStore core.ITokenStore
	PriceStore core.IPriceStore
	Prices     core.IPriceService
	Oracle     core.IPriceOracleService
}

// New new price sync worker
func New(db core.Transactor, tokenStore core.ITokenStore, priceStore core.IPriceStore, prices core.IPriceService, oracle core.IPriceOracleService) *Worker {
	return &Worker{
		TickWorker: worker.TickWorker{
			Delay:    10 * time.Second,
			ErrDelay: 30 * time.Second,
		},
		DB:         db,
		TokenStore: tokenStore,
		PriceStore: priceStore,
		Prices:     prices,
		Oracle:     oracle,
	}
}

// Run run worker
func (w *Worker) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "pricesync")

	tokens, err := w.TokenStore.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("list tokens")
		return err
	}

	var g errgroup.Group
	for _, token := range tokens {
		token := token
		g.Go(func() error {
			if err := w.sync(ctx, token); err != nil {
				log.WithError(err).WithField("symbol", token.Symbol).Errorln("sync price")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := w.PriceStore.DeleteStale(ctx, time.Now().Add(-staleHorizon)); err != nil {
		log.WithError(err).Errorln("delete stale prices")
	}

	return nil
}

func (w *Worker) sync(ctx context.Context, token *core.Token) error {
	price, err := w.PriceStore.Find(ctx, token.AssetID)
	if err != nil {
		return err
	}

	if price.ID != 0 && time.Since(price.PostedAt) < refreshInterval {
		return nil
	}

	ticker, err := w.Oracle.PullPriceTicker(ctx, token.AssetID, time.Now())
	if err != nil {
		return err
	}

	if ticker.Price.LessThanOrEqual(decimal.Zero) {
		return core.ErrNoValue
	}

	// the ticker quotes the human denominated price; Post takes the raw
	// integer value scaled by the token's price decimals
	raw := ticker.Price.Shift(token.PriceDecimals)

	return w.DB.Tx(func(tx *db.DB) error {
		return w.Prices.Post(ctx, tx, token.AssetID, raw)
	})
}
