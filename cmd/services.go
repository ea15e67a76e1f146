package cmd

import (
	"forge/core"

	"github.com/fox-one/pkg/store/db"
)

// services the fully wired service graph for command line operations
type services struct {
	db           *db.DB
	tokenStore   core.ITokenStore
	priceStore   core.IPriceStore
	auctionStore core.IAuctionStore
	custodyStore core.ICustodyStore

	params     core.IParamService
	registry   core.TokenRegistry
	prices     core.IPriceService
	collateral core.ILedgerService
	debt       core.ILedgerService
	solvency   core.ISolvencyService
	rewards    core.IRewardService
	assets     core.AssetCustody
	position   core.IPositionService
	auctions   core.IAuctionService
}

func buildServices() *services {
	database := provideDatabase()

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
	position := providePositionService(database, collateral, debt, solvency, rewards, registry, assets, prices, params, auctionStore)
	auctions := provideAuctionService(database, auctionStore, collateral, debt, solvency, rewards, registry, assets, params)

	return &services{
		db:           database,
		tokenStore:   tokenStore,
		priceStore:   priceStore,
		auctionStore: auctionStore,
		custodyStore: custodyStore,
		params:       params,
		registry:     registry,
		prices:       prices,
		collateral:   collateral,
		debt:         debt,
		solvency:     solvency,
		rewards:      rewards,
		assets:       assets,
		position:     position,
		auctions:     auctions,
	}
}

func (s *services) Close() error {
	return s.db.Close()
}
