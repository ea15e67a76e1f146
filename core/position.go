package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// IPositionService the caller-facing surface of the position engine. Each
// operation runs reward update, guard checks and ledger writes inside one
// transaction; a failed call leaves no partial state.
type IPositionService interface {
	Deposit(ctx context.Context, address, assetID string, amount decimal.Decimal) error
	Withdraw(ctx context.Context, address, assetID string, amount decimal.Decimal) error
	Mint(ctx context.Context, address, assetID string, amount decimal.Decimal) error
	// MintMax mints the largest amount keeping the account at or above
	// targetRatio, never rounding up past the boundary
	MintMax(ctx context.Context, address, assetID string, targetRatio decimal.Decimal) (decimal.Decimal, error)
	Repay(ctx context.Context, address, assetID string, amount decimal.Decimal) error
	// RepayMax repays min(debt balance, caller asset balance)
	RepayMax(ctx context.Context, address, assetID string) (decimal.Decimal, error)
	// ClaimReward pays out the stash; an ineligible account forfeits it
	ClaimReward(ctx context.Context, address string) (decimal.Decimal, error)
}
