package cmd

import (
	"forge/core"
	"forge/store/auction"
	"forge/store/custody"
	"forge/store/ledger"
	"forge/store/price"
	"forge/store/reward"
	"forge/store/token"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideLedgerStore(db *db.DB) core.ILedgerStore {
	return ledger.New(db)
}

func provideRewardStore(db *db.DB) core.IRewardStore {
	return reward.New(db)
}

func provideAuctionStore(db *db.DB) core.IAuctionStore {
	return auction.New(db)
}

func providePriceStore(db *db.DB) core.IPriceStore {
	return price.New(db)
}

func provideTokenStore(db *db.DB) core.ITokenStore {
	return token.New(db)
}

func provideCustodyStore(db *db.DB) core.ICustodyStore {
	return custody.New(db)
}
