package views

import (
	"forge/core"

	"github.com/shopspring/decimal"
)

// Account account view
type Account struct {
	Address         string              `json:"address"`
	Collateral      []*core.LedgerEntry `json:"collateral"`
	Debt            []*core.LedgerEntry `json:"debt"`
	CollateralValue decimal.Decimal     `json:"collateral_value"`
	DebtValue       decimal.Decimal     `json:"debt_value"`
	CollateralRatio decimal.Decimal     `json:"collateral_ratio"`
	RewardEarned    decimal.Decimal     `json:"reward_earned"`
	RewardEligible  bool                `json:"reward_eligible"`
}

// Auction auction view
type Auction struct {
	core.Auction
	OfferingRatio decimal.Decimal    `json:"offering_ratio"`
	Lots          []*core.AuctionLot `json:"lots"`
	Bids          []*core.Bid        `json:"bids,omitempty"`
}

// Params params view with legible durations
type Params struct {
	MinCollateralRatio     decimal.Decimal `json:"min_collateral_ratio"`
	RewardEligibilityRatio decimal.Decimal `json:"reward_eligibility_ratio"`
	MintFeeRate            decimal.Decimal `json:"mint_fee_rate"`
	MinMintAmount          decimal.Decimal `json:"min_mint_amount"`
	EpochLength            string          `json:"epoch_length"`
	AuctionWindow          string          `json:"auction_window"`
	AuctionStartRatio      decimal.Decimal `json:"auction_start_ratio"`
	AuctionFeeRate         decimal.Decimal `json:"auction_fee_rate"`
	InitiatorBonus         decimal.Decimal `json:"initiator_bonus"`
}

// NewParams new params view
func NewParams(p *core.Params) Params {
	return Params{
		MinCollateralRatio:     p.MinCollateralRatio,
		RewardEligibilityRatio: p.RewardEligibilityRatio,
		MintFeeRate:            p.MintFeeRate,
		MinMintAmount:          p.MinMintAmount,
		EpochLength:            p.EpochLength.String(),
		AuctionWindow:          p.AuctionWindow.String(),
		AuctionStartRatio:      p.AuctionStartRatio,
		AuctionFeeRate:         p.AuctionFeeRate,
		InitiatorBonus:         p.InitiatorBonus,
	}
}
