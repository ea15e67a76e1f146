package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forge/handler/hc"
	"forge/handler/rest"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run forge api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		propertyStore := providePropertyStore(database)
		ledgerStore := provideLedgerStore(database)
		rewardStore := provideRewardStore(database)
		auctionStore := provideAuctionStore(database)
		priceStore := providePriceStore(database)
		tokenStore := provideTokenStore(database)

		params := provideParamService(propertyStore)
		registry := provideTokenRegistry(tokenStore)
		prices := providePriceService(priceStore, registry)
		collateral := provideCollateralLedger(ledgerStore, prices)
		debt := provideDebtLedger(ledgerStore, prices)
		solvency := provideGuardService(collateral, debt, prices, params)
		rewards := provideRewardService(rewardStore, debt, params)
		custodyStore := provideCustodyStore(database)
		assets := provideCustodyService(custodyStore)
		auctions := provideAuctionService(database, auctionStore, collateral, debt, solvency, rewards, registry, assets, params)

		mux := chi.NewMux()
		mux.Use(middleware.Recoverer)
		mux.Use(middleware.StripSlashes)
		mux.Use(cors.AllowAll().Handler)
		mux.Use(logger.WithRequestID)
		mux.Use(middleware.Logger)
		mux.Use(middleware.NewCompressor(5).Handler)

		mux.Mount("/hc", hc.Handle(rootCmd.Version))
		mux.Mount("/api", rest.Handle(collateral, debt, solvency, rewards, auctionStore, auctions, tokenStore, priceStore, params))

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
}
