package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// property keys of the owner-tunable parameters
const (
	ParamMinCollateralRatio     = "min_collateral_ratio"
	ParamRewardEligibilityRatio = "reward_eligibility_ratio"
	ParamMintFeeRate            = "mint_fee_rate"
	ParamMinMintAmount          = "min_mint_amount"
	ParamEpochLength            = "epoch_length"
	ParamAuctionWindow          = "auction_window"
	ParamAuctionStartRatio      = "auction_start_ratio"
	ParamAuctionFeeRate         = "auction_fee_rate"
	ParamInitiatorBonus         = "initiator_bonus"
)

// Params owner-tunable protocol parameters. Ratios are fixed-point
// multiples of 1.0.
type Params struct {
	MinCollateralRatio     decimal.Decimal `json:"min_collateral_ratio"`
	RewardEligibilityRatio decimal.Decimal `json:"reward_eligibility_ratio"`
	MintFeeRate            decimal.Decimal `json:"mint_fee_rate"`
	MinMintAmount          decimal.Decimal `json:"min_mint_amount"`
	EpochLength            time.Duration   `json:"epoch_length"`
	AuctionWindow          time.Duration   `json:"auction_window"`
	AuctionStartRatio      decimal.Decimal `json:"auction_start_ratio"`
	AuctionFeeRate         decimal.Decimal `json:"auction_fee_rate"`
	InitiatorBonus         decimal.Decimal `json:"initiator_bonus"`
}

// DefaultParams protocol defaults, overridable through the property store
func DefaultParams() *Params {
	return &Params{
		MinCollateralRatio:     decimal.NewFromInt(3),
		RewardEligibilityRatio: decimal.NewFromInt(5),
		MintFeeRate:            decimal.NewFromFloat(0.001),
		MinMintAmount:          decimal.NewFromFloat(0.0001),
		EpochLength:            7 * 24 * time.Hour,
		AuctionWindow:          5 * 24 * time.Hour,
		AuctionStartRatio:      decimal.NewFromFloat(0.3),
		AuctionFeeRate:         decimal.NewFromFloat(0.03),
		InitiatorBonus:         decimal.NewFromInt(1),
	}
}

// IParamService reads the effective parameter set and persists overrides
type IParamService interface {
	Current(ctx context.Context) (*Params, error)
	Set(ctx context.Context, key, value string) error
}
