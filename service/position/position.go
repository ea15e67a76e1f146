package position

import (
	"context"
	"time"

	"forge/core"
	"forge/pkg/number"
	"forge/pkg/reentrant"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type positionService struct {
	db         core.Transactor
	collateral core.ILedgerService
	debt       core.ILedgerService
	guard      core.ISolvencyService
	rewards    core.IRewardService
	registry   core.TokenRegistry
	custody    core.AssetCustody
	feed       core.PriceFeed
	params     core.IParamService
	auctions   core.IAuctionStore
	app        *core.App

	entry *reentrant.Guard
	now   func() time.Time
}

// New new position engine
func New(
	transactor core.Transactor,
	collateral core.ILedgerService,
	debt core.ILedgerService,
	guard core.ISolvencyService,
	rewards core.IRewardService,
	registry core.TokenRegistry,
	custody core.AssetCustody,
	feed core.PriceFeed,
	params core.IParamService,
	auctions core.IAuctionStore,
	app *core.App,
) core.IPositionService {
	return &positionService{
		db:         transactor,
		collateral: collateral,
		debt:       debt,
		guard:      guard,
		rewards:    rewards,
		registry:   registry,
		custody:    custody,
		feed:       feed,
		params:     params,
		auctions:   auctions,
		app:        app,
		entry:      reentrant.New(),
		now:        time.Now,
	}
}

// ensureNotFlagged rejects balance mutations while a liquidation auction
// holds the account's ledger rows
func (s *positionService) ensureNotFlagged(ctx context.Context, address string) error {
	auction, err := s.auctions.FindOpenByAddress(ctx, address)
	if err != nil {
		return err
	}

	if auction.ID != 0 {
		return core.ErrAccountFlagged
	}

	return nil
}

func (s *positionService) Deposit(ctx context.Context, address, assetID string, amount decimal.Decimal) error {
	// the ledger books 8 decimal places; truncating here keeps the
	// custody movement equal to the booked amount
	amount = amount.Truncate(8)
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.ensureNotFlagged(ctx, address); err != nil {
		return err
	}

	ok, err := s.registry.CanDeposit(ctx, assetID)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrDepositProhibited
	}

	price, err := s.feed.GetPrice(ctx, assetID)
	if err != nil {
		return err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return core.ErrNoValue
	}

	release, ok := s.entry.Enter(address)
	if !ok {
		return core.ErrReentrantCall
	}
	defer release()

	now := s.now()
	return s.db.Tx(func(tx *db.DB) error {
		if err := s.rewards.Update(ctx, tx, address, now); err != nil {
			return err
		}

		if err := s.collateral.Add(ctx, tx, address, assetID, amount); err != nil {
			return err
		}

		return s.custody.TransferIn(ctx, tx, address, assetID, amount)
	})
}

func (s *positionService) Withdraw(ctx context.Context, address, assetID string, amount decimal.Decimal) error {
	amount = amount.Truncate(8)
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.ensureNotFlagged(ctx, address); err != nil {
		return err
	}

	balance, err := s.collateral.BalanceOf(ctx, address, assetID)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	ok, err := s.guard.CollateralCanDecrease(ctx, address, assetID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrRatioViolation
	}

	release, ok := s.entry.Enter(address)
	if !ok {
		return core.ErrReentrantCall
	}
	defer release()

	now := s.now()
	return s.db.Tx(func(tx *db.DB) error {
		if err := s.rewards.Update(ctx, tx, address, now); err != nil {
			return err
		}

		if err := s.collateral.Sub(ctx, tx, address, assetID, amount); err != nil {
			return err
		}

		return s.custody.TransferOut(ctx, tx, address, assetID, amount)
	})
}

func (s *positionService) Mint(ctx context.Context, address, assetID string, amount decimal.Decimal) error {
	params, err := s.params.Current(ctx)
	if err != nil {
		return err
	}

	amount = amount.Truncate(8)
	if amount.LessThanOrEqual(decimal.Zero) || amount.LessThan(params.MinMintAmount) {
		return core.ErrInvalidAmount
	}

	if err := s.ensureNotFlagged(ctx, address); err != nil {
		return err
	}

	ok, err := s.registry.CanMint(ctx, assetID)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrMintProhibited
	}

	price, err := s.feed.GetPrice(ctx, assetID)
	if err != nil {
		return err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return core.ErrNoValue
	}

	// fee accrues as extra debt on the designated fee token
	fee := amount.Mul(params.MintFeeRate).Truncate(8)
	feeAsset := s.app.FeeAssetID
	if feeAsset == "" {
		feeAsset = assetID
	}

	// the guard test covers minted plus fee debt; a foreign-asset fee is
	// folded in as its value-equivalent amount of the minted token
	combined := amount
	if fee.IsPositive() {
		if feeAsset == assetID {
			combined = amount.Add(fee)
		} else {
			feePrice, err := s.feed.GetPrice(ctx, feeAsset)
			if err != nil {
				return err
			}
			if feePrice.LessThanOrEqual(decimal.Zero) {
				return core.ErrNoValue
			}

			combined = amount.Add(number.Ceil(fee.Mul(feePrice).Div(price), 8))
		}
	}

	ok, err = s.guard.DebtCanIncrease(ctx, address, assetID, combined)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrRatioViolation
	}

	release, ok := s.entry.Enter(address)
	if !ok {
		return core.ErrReentrantCall
	}
	defer release()

	now := s.now()
	return s.db.Tx(func(tx *db.DB) error {
		if err := s.rewards.Update(ctx, tx, address, now); err != nil {
			return err
		}

		// a same-asset fee rides on the principal write; each ledger row
		// is touched once per transaction
		principal := amount
		if fee.IsPositive() && feeAsset == assetID {
			principal = amount.Add(fee)
		}

		if err := s.debt.Add(ctx, tx, address, assetID, principal); err != nil {
			return err
		}

		if fee.IsPositive() && feeAsset != assetID {
			if err := s.debt.Add(ctx, tx, address, feeAsset, fee); err != nil {
				return err
			}
		}

		return s.custody.MintAsset(ctx, tx, address, assetID, amount)
	})
}

func (s *positionService) MintMax(ctx context.Context, address, assetID string, targetRatio decimal.Decimal) (decimal.Decimal, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if targetRatio.LessThan(params.MinCollateralRatio) {
		return decimal.Zero, core.ErrInvalidAmount
	}

	price, err := s.feed.GetPrice(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, core.ErrNoValue
	}

	collateralValue, err := s.collateral.TotalOf(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	debtValue, err := s.debt.TotalOf(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	headroom := collateralValue.Div(targetRatio).Sub(debtValue)
	if headroom.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, core.ErrRatioViolation
	}

	// one minted unit costs its own price plus the fee it accrues
	unitCost := price
	if params.MintFeeRate.IsPositive() {
		feeAsset := s.app.FeeAssetID
		if feeAsset == "" {
			feeAsset = assetID
		}

		feePrice := price
		if feeAsset != assetID {
			feePrice, err = s.feed.GetPrice(ctx, feeAsset)
			if err != nil {
				return decimal.Zero, err
			}
			if feePrice.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, core.ErrNoValue
			}
		}

		unitCost = unitCost.Add(params.MintFeeRate.Mul(feePrice))
	}

	// floored so the result never rounds up past the ratio boundary
	amount := number.Floor(headroom.Div(unitCost), 8)
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, core.ErrRatioViolation
	}

	if err := s.Mint(ctx, address, assetID, amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

func (s *positionService) Repay(ctx context.Context, address, assetID string, amount decimal.Decimal) error {
	amount = amount.Truncate(8)
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	if err := s.ensureNotFlagged(ctx, address); err != nil {
		return err
	}

	balance, err := s.debt.BalanceOf(ctx, address, assetID)
	if err != nil {
		return err
	}
	if balance.LessThanOrEqual(decimal.Zero) || balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	release, ok := s.entry.Enter(address)
	if !ok {
		return core.ErrReentrantCall
	}
	defer release()

	now := s.now()
	return s.db.Tx(func(tx *db.DB) error {
		if err := s.rewards.Update(ctx, tx, address, now); err != nil {
			return err
		}

		if err := s.custody.BurnAsset(ctx, tx, address, assetID, amount); err != nil {
			return err
		}

		return s.debt.Sub(ctx, tx, address, assetID, amount)
	})
}

func (s *positionService) RepayMax(ctx context.Context, address, assetID string) (decimal.Decimal, error) {
	balance, err := s.debt.BalanceOf(ctx, address, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, core.ErrInsufficientBalance
	}

	held, err := s.custody.BalanceOf(ctx, address, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	amount := decimal.Min(balance, held)
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, core.ErrInsufficientAllowance
	}

	if err := s.Repay(ctx, address, assetID, amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

func (s *positionService) ClaimReward(ctx context.Context, address string) (decimal.Decimal, error) {
	release, ok := s.entry.Enter(address)
	if !ok {
		return decimal.Zero, core.ErrReentrantCall
	}
	defer release()

	now := s.now()

	var (
		claimed  decimal.Decimal
		eligible bool
	)

	err := s.db.Tx(func(tx *db.DB) error {
		var err error
		eligible, err = s.guard.RewardCanClaim(ctx, address)
		if err != nil {
			return err
		}

		if !eligible {
			// the stash is forfeited, not deferred
			forfeited, err := s.rewards.Forfeit(ctx, tx, address, now)
			if err != nil {
				return err
			}

			if forfeited.IsPositive() {
				logger.FromContext(ctx).WithField("address", address).
					Infof("reward stash %s forfeited", forfeited)
			}

			return nil
		}

		claimed, err = s.rewards.Claim(ctx, tx, address, now)
		if err != nil {
			return err
		}

		if claimed.IsPositive() {
			return s.custody.TransferOut(ctx, tx, address, s.app.RewardAssetID, claimed)
		}

		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	if !eligible {
		return decimal.Zero, core.ErrNotEligible
	}

	return claimed, nil
}
