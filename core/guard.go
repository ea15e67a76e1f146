package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// ISolvencyService pure decision functions over the two ledgers and the
// price feed. No method here mutates state.
type ISolvencyService interface {
	// CollateralRatioOf returns collateral value / debt value. A zero-debt
	// account reports a zero ratio together with ok == false.
	CollateralRatioOf(ctx context.Context, address string) (decimal.Decimal, bool, error)
	IsInsolvent(ctx context.Context, address string) (bool, error)
	CollateralCanDecrease(ctx context.Context, address, assetID string, amount decimal.Decimal) (bool, error)
	DebtCanIncrease(ctx context.Context, address, assetID string, amount decimal.Decimal) (bool, error)
	RewardIsEligible(ctx context.Context, address string) (bool, error)
	RewardCanClaim(ctx context.Context, address string) (bool, error)
}
