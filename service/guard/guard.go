package guard

import (
	"context"

	"forge/core"

	"github.com/shopspring/decimal"
)

type solvencyService struct {
	collateral core.ILedgerReader
	debt       core.ILedgerReader
	feed       core.PriceFeed
	params     core.IParamService
}

// New new solvency guard over the two pools
func New(collateral, debt core.ILedgerReader, feed core.PriceFeed, params core.IParamService) core.ISolvencyService {
	return &solvencyService{
		collateral: collateral,
		debt:       debt,
		feed:       feed,
		params:     params,
	}
}

func (s *solvencyService) CollateralRatioOf(ctx context.Context, address string) (decimal.Decimal, bool, error) {
	collateralValue, err := s.collateral.TotalOf(ctx, address)
	if err != nil {
		return decimal.Zero, false, err
	}

	debtValue, err := s.debt.TotalOf(ctx, address)
	if err != nil {
		return decimal.Zero, false, err
	}

	if debtValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, nil
	}

	return collateralValue.DivRound(debtValue, 8), true, nil
}

func (s *solvencyService) IsInsolvent(ctx context.Context, address string) (bool, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return false, err
	}

	ratio, ok, err := s.CollateralRatioOf(ctx, address)
	if err != nil {
		return false, err
	}

	// no debt, nothing to be insolvent against
	if !ok {
		return false, nil
	}

	return ratio.LessThan(params.MinCollateralRatio), nil
}

func (s *solvencyService) CollateralCanDecrease(ctx context.Context, address, assetID string, amount decimal.Decimal) (bool, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return false, err
	}

	return s.canDecrease(ctx, address, assetID, amount, params.MinCollateralRatio)
}

func (s *solvencyService) DebtCanIncrease(ctx context.Context, address, assetID string, amount decimal.Decimal) (bool, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return false, err
	}

	return s.canIncrease(ctx, address, assetID, amount, params.MinCollateralRatio)
}

func (s *solvencyService) RewardIsEligible(ctx context.Context, address string) (bool, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return false, err
	}

	// same test at the stricter ratio, with nothing changing hands
	return s.canDecrease(ctx, address, "", decimal.Zero, params.RewardEligibilityRatio)
}

func (s *solvencyService) RewardCanClaim(ctx context.Context, address string) (bool, error) {
	return s.RewardIsEligible(ctx, address)
}

// canDecrease checks collateralValue - value(assetID, amount) >= debtValue * ratio
// against post-change state
func (s *solvencyService) canDecrease(ctx context.Context, address, assetID string, amount decimal.Decimal, ratio decimal.Decimal) (bool, error) {
	var (
		collateralValue decimal.Decimal
		err             error
	)

	if assetID == "" {
		collateralValue, err = s.collateral.TotalOf(ctx, address)
	} else {
		collateralValue, err = s.collateral.TotalOfDec(ctx, address, assetID, amount)
	}
	if err == core.ErrInsufficientBalance {
		return false, nil
	} else if err != nil {
		return false, err
	}

	debtValue, err := s.debt.TotalOf(ctx, address)
	if err != nil {
		return false, err
	}

	return collateralValue.GreaterThanOrEqual(debtValue.Mul(ratio)), nil
}

// canIncrease checks collateralValue >= (debtValue + value(assetID, amount)) * ratio
func (s *solvencyService) canIncrease(ctx context.Context, address, assetID string, amount decimal.Decimal, ratio decimal.Decimal) (bool, error) {
	collateralValue, err := s.collateral.TotalOf(ctx, address)
	if err != nil {
		return false, err
	}

	debtValue, err := s.debt.TotalOfInc(ctx, address, assetID, amount)
	if err != nil {
		return false, err
	}

	return collateralValue.GreaterThanOrEqual(debtValue.Mul(ratio)), nil
}
