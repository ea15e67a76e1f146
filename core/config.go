package core

import (
	"github.com/fox-one/pkg/store/db"
)

// Config forge config
type Config struct {
	App         App         `json:"app"`
	DB          db.Config   `json:"db"`
	PriceOracle PriceOracle `json:"price_oracle"`
}

// App app config
type App struct {
	Location string `json:"location"`
	// Vault omnibus address holding everything transferred into the protocol
	Vault string `json:"vault"`
	// FeeAssetID the designated fee token; mint fees accrue as extra debt on it
	FeeAssetID string `json:"fee_asset_id"`
	// BonusAssetID native asset the initiator bonus is paid in
	BonusAssetID string `json:"bonus_asset_id"`
	// RewardAssetID asset reward claims are paid in
	RewardAssetID string `json:"reward_asset_id"`
	// FeeVault address receiving the protocol's cut of auction payments
	FeeVault string `json:"fee_vault"`
	// Keeper address credited when the flagger worker opens an auction
	Keeper string `json:"keeper"`
}

// PriceOracle price oracle config
type PriceOracle struct {
	EndPoint string `json:"end_point"`
}
