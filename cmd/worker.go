package cmd

import (
	"forge/worker"
	"forge/worker/auditor"
	"forge/worker/flagger"
	"forge/worker/pricesync"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "forge job worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		propertyStore := providePropertyStore(database)
		ledgerStore := provideLedgerStore(database)
		rewardStore := provideRewardStore(database)
		auctionStore := provideAuctionStore(database)
		priceStore := providePriceStore(database)
		tokenStore := provideTokenStore(database)
		custodyStore := provideCustodyStore(database)

		params := provideParamService(propertyStore)
		registry := provideTokenRegistry(tokenStore)
		prices := providePriceService(priceStore, registry)
		collateral := provideCollateralLedger(ledgerStore, prices)
		debt := provideDebtLedger(ledgerStore, prices)
		solvency := provideGuardService(collateral, debt, prices, params)
		rewards := provideRewardService(rewardStore, debt, params)
		assets := provideCustodyService(custodyStore)
		auctions := provideAuctionService(database, auctionStore, collateral, debt, solvency, rewards, registry, assets, params)
		oracle := providePriceOracleService()

		workers := []worker.Worker{
			flagger.New(provideConfig(), debt, solvency, auctionStore, auctions),
			pricesync.New(database, tokenStore, priceStore, prices, oracle),
			auditor.New(provideConfig(), collateral, debt),
		}

		var g errgroup.Group
		for _, w := range workers {
			w := w
			g.Go(func() error {
				return w.Run(ctx)
			})
		}

		if err := g.Wait(); err != nil {
			log.WithError(err).Errorln("workers stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
