package cmd

import (
	"forge/core"
	auctionservice "forge/service/auction"
	custodyservice "forge/service/custody"
	"forge/service/guard"
	ledgerservice "forge/service/ledger"
	"forge/service/oracle"
	paramservice "forge/service/param"
	"forge/service/position"
	rewardservice "forge/service/reward"
	tokenservice "forge/service/token"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
)

func provideParamService(property property.Store) core.IParamService {
	return paramservice.New(property)
}

func provideTokenRegistry(tokenStore core.ITokenStore) core.TokenRegistry {
	return tokenservice.New(tokenStore)
}

func providePriceService(priceStore core.IPriceStore, registry core.TokenRegistry) core.IPriceService {
	return oracle.New(priceStore, registry)
}

func providePriceOracleService() core.IPriceOracleService {
	return oracle.NewPuller(&cfg.PriceOracle)
}

func provideCollateralLedger(ledgerStore core.ILedgerStore, feed core.PriceFeed) core.ILedgerService {
	return ledgerservice.New(ledgerStore, feed, core.PoolCollateral)
}

func provideDebtLedger(ledgerStore core.ILedgerStore, feed core.PriceFeed) core.ILedgerService {
	return ledgerservice.New(ledgerStore, feed, core.PoolDebt)
}

func provideGuardService(collateral, debt core.ILedgerService, feed core.PriceFeed, params core.IParamService) core.ISolvencyService {
	return guard.New(collateral, debt, feed, params)
}

func provideRewardService(rewardStore core.IRewardStore, debt core.ILedgerService, params core.IParamService) core.IRewardService {
	return rewardservice.New(rewardStore, debt, params)
}

func provideCustodyService(custodyStore core.ICustodyStore) core.AssetCustody {
	return custodyservice.New(custodyStore, cfg.App.Vault)
}

func providePositionService(
	database *db.DB,
	collateral, debt core.ILedgerService,
	solvency core.ISolvencyService,
	rewards core.IRewardService,
	registry core.TokenRegistry,
	assets core.AssetCustody,
	feed core.PriceFeed,
	params core.IParamService,
	auctionStore core.IAuctionStore,
) core.IPositionService {
	return position.New(database, collateral, debt, solvency, rewards, registry, assets, feed, params, auctionStore, &cfg.App)
}

func provideAuctionService(
	database *db.DB,
	auctionStore core.IAuctionStore,
	collateral, debt core.ILedgerService,
	solvency core.ISolvencyService,
	rewards core.IRewardService,
	registry core.TokenRegistry,
	assets core.AssetCustody,
	params core.IParamService,
) core.IAuctionService {
	return auctionservice.New(database, auctionStore, collateral, debt, solvency, rewards, registry, assets, params, &cfg.App)
}
