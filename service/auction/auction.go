package auction

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"forge/core"
	"forge/pkg/id"
	"forge/pkg/reentrant"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const amountPrecision = 8

type auctionService struct {
	db         core.Transactor
	store      core.IAuctionStore
	collateral core.ILedgerService
	debt       core.ILedgerService
	guard      core.ISolvencyService
	rewards    core.IRewardService
	registry   core.TokenRegistry
	custody    core.AssetCustody
	params     core.IParamService
	app        *core.App

	entry *reentrant.Guard
}

// New new liquidation auction service
func New(
	transactor core.Transactor,
	store core.IAuctionStore,
	collateral core.ILedgerService,
	debt core.ILedgerService,
	guard core.ISolvencyService,
	rewards core.IRewardService,
	registry core.TokenRegistry,
	custody core.AssetCustody,
	params core.IParamService,
	app *core.App,
) core.IAuctionService {
	return &auctionService{
		db:         transactor,
		store:      store,
		collateral: collateral,
		debt:       debt,
		guard:      guard,
		rewards:    rewards,
		registry:   registry,
		custody:    custody,
		params:     params,
		app:        app,
		entry:      reentrant.New(),
	}
}

func (s *auctionService) Open(ctx context.Context, initiator, target string, now time.Time) (*core.Auction, error) {
	release, ok := s.entry.Enter(target)
	if !ok {
		return nil, core.ErrReentrantCall
	}
	defer release()

	if err := s.validateOpen(ctx, target); err != nil {
		return nil, err
	}

	var auction *core.Auction
	err := s.db.Tx(func(tx *db.DB) error {
		var err error
		auction, _, err = s.open(ctx, tx, initiator, target, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return auction, nil
}

func (s *auctionService) Bid(ctx context.Context, nonce uint64, bidder string, percentage decimal.Decimal, now time.Time) (*core.Bid, error) {
	if percentage.LessThanOrEqual(decimal.Zero) {
		return nil, core.ErrInvalidAmount
	}

	// the snapshot must be read under the guard or a concurrent fill
	// invalidates it between read and write
	release, ok := s.entry.Enter("auction:" + strconv.FormatUint(nonce, 10))
	if !ok {
		return nil, core.ErrReentrantCall
	}
	defer release()

	auction, err := s.store.Find(ctx, nonce)
	if err != nil {
		return nil, err
	}

	if auction.ID == 0 {
		return nil, core.ErrAuctionNotFound
	}

	if auction.State != core.AuctionStateOpen {
		return nil, core.ErrAuctionClosed
	}

	if percentage.GreaterThan(one.Sub(auction.Filled)) {
		return nil, core.ErrOverfillAttempt
	}

	lots, err := s.store.Lots(ctx, auction.ID)
	if err != nil {
		return nil, err
	}

	var bid *core.Bid
	err = s.db.Tx(func(tx *db.DB) error {
		var err error
		bid, err = s.fill(ctx, tx, auction, lots, bidder, percentage, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return bid, nil
}

func (s *auctionService) Liquidate(ctx context.Context, bidder, target string, now time.Time) (*core.Bid, error) {
	release, ok := s.entry.Enter(target)
	if !ok {
		return nil, core.ErrReentrantCall
	}
	defer release()

	if err := s.validateOpen(ctx, target); err != nil {
		return nil, err
	}

	var bid *core.Bid
	err := s.db.Tx(func(tx *db.DB) error {
		auction, lots, err := s.open(ctx, tx, bidder, target, now)
		if err != nil {
			return err
		}

		bid, err = s.fill(ctx, tx, auction, lots, bidder, one, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return bid, nil
}

func (s *auctionService) ForceClose(ctx context.Context, nonce uint64, now time.Time) error {
	release, ok := s.entry.Enter("auction:" + strconv.FormatUint(nonce, 10))
	if !ok {
		return core.ErrReentrantCall
	}
	defer release()

	auction, err := s.store.Find(ctx, nonce)
	if err != nil {
		return err
	}

	if auction.ID == 0 {
		return core.ErrAuctionNotFound
	}

	if auction.State != core.AuctionStateOpen {
		return core.ErrAuctionClosed
	}

	lots, err := s.store.Lots(ctx, auction.ID)
	if err != nil {
		return err
	}

	return s.db.Tx(func(tx *db.DB) error {
		// unsold collateral goes back to the target; unpaid debt stays on
		// the account
		for _, lot := range lots {
			if lot.Side != core.LotSideCollateral {
				continue
			}

			remain := lot.Amount.Sub(lot.Filled)
			if remain.LessThanOrEqual(decimal.Zero) {
				continue
			}

			if err := s.collateral.Sub(ctx, tx, auction.Address, lot.AssetID, remain); err != nil {
				return err
			}

			if err := s.custody.TransferOut(ctx, tx, auction.Address, lot.AssetID, remain); err != nil {
				return err
			}

			lot.Filled = lot.Amount
			if err := s.store.UpdateLot(ctx, tx, lot); err != nil {
				return err
			}
		}

		auction.State = core.AuctionStateClosed
		auction.ClosedAt = sql.NullTime{Time: now, Valid: true}
		return s.store.Update(ctx, tx, auction)
	})
}

func (s *auctionService) OfferingRatio(ctx context.Context, elapsed time.Duration) (decimal.Decimal, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return offeringRatio(params, elapsed), nil
}

func (s *auctionService) validateOpen(ctx context.Context, target string) error {
	insolvent, err := s.guard.IsInsolvent(ctx, target)
	if err != nil {
		return err
	}

	if !insolvent {
		return core.ErrNotEligible
	}

	existing, err := s.store.FindOpenByAddress(ctx, target)
	if err != nil {
		return err
	}

	if existing.ID != 0 {
		return core.ErrAuctionExists
	}

	return nil
}

// open freezes the target's two pool snapshots as lots and pays the
// initiator bonus. Must run inside tx.
func (s *auctionService) open(ctx context.Context, tx *db.DB, initiator, target string, now time.Time) (*core.Auction, []*core.AuctionLot, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	debtValue, err := s.debt.TotalOf(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	if debtValue.LessThanOrEqual(decimal.Zero) {
		return nil, nil, core.ErrNotEligible
	}

	auction := &core.Auction{
		Address:   target,
		StartedAt: now,
		DebtValue: debtValue,
		Filled:    decimal.Zero,
		State:     core.AuctionStateOpen,
	}

	var lots []*core.AuctionLot
	appendLots := func(side string, entries []*core.LedgerEntry) {
		for _, entry := range entries {
			if entry.Balance.LessThanOrEqual(decimal.Zero) {
				continue
			}

			lots = append(lots, &core.AuctionLot{
				Side:    side,
				AssetID: entry.AssetID,
				Amount:  entry.Balance,
				Filled:  decimal.Zero,
			})
		}
	}

	collateralEntries, err := s.collateral.EntriesOf(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	appendLots(core.LotSideCollateral, collateralEntries)

	debtEntries, err := s.debt.EntriesOf(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	appendLots(core.LotSideDebt, debtEntries)

	if err := s.store.Create(ctx, tx, auction, lots); err != nil {
		return nil, nil, err
	}

	log := logger.FromContext(ctx).WithField("auction", auction.ID).WithField("target", target)

	bonus := params.InitiatorBonus
	if bonus.IsPositive() && s.app.BonusAssetID != "" {
		err := s.custody.TransferOut(ctx, tx, initiator, s.app.BonusAssetID, bonus)
		if err == core.ErrInsufficientBalance {
			// vault cannot fund the bonus right now; the auction still opens
			log.WithField("initiator", initiator).Infof("initiator bonus %s skipped", bonus)
		} else if err != nil {
			return nil, nil, err
		}
	}

	log.Infof("auction opened over debt value %s", debtValue)

	return auction, lots, nil
}

// fill settles one bid at the offering ratio in force. Must run inside tx
// with the lots loaded before any write of this transaction.
func (s *auctionService) fill(ctx context.Context, tx *db.DB, auction *core.Auction, lots []*core.AuctionLot, bidder string, percentage decimal.Decimal, now time.Time) (*core.Bid, error) {
	params, err := s.params.Current(ctx)
	if err != nil {
		return nil, err
	}

	ratio := offeringRatio(params, now.Sub(auction.StartedAt))
	closing := auction.Filled.Add(percentage).GreaterThanOrEqual(one)

	if err := s.rewards.Update(ctx, tx, auction.Address, now); err != nil {
		return nil, err
	}

	for _, lot := range lots {
		if lot.Side != core.LotSideDebt {
			continue
		}

		// the closing bid takes the exact remainder so truncation dust
		// from earlier bids cannot strand debt
		pay := lot.Amount.Mul(percentage).Truncate(amountPrecision)
		if closing {
			pay = lot.Amount.Sub(lot.Filled)
		}
		if pay.LessThanOrEqual(decimal.Zero) {
			continue
		}

		if err := s.custody.BurnAsset(ctx, tx, bidder, lot.AssetID, pay); err != nil {
			return nil, err
		}

		fee := pay.Mul(params.AuctionFeeRate).Truncate(amountPrecision)
		if fee.IsPositive() && s.app.FeeVault != "" {
			if err := s.custody.MintAsset(ctx, tx, s.app.FeeVault, lot.AssetID, fee); err != nil {
				return nil, err
			}
		}

		if err := s.debt.Sub(ctx, tx, auction.Address, lot.AssetID, pay); err != nil {
			return nil, err
		}

		lot.Filled = lot.Filled.Add(pay)
		if err := s.store.UpdateLot(ctx, tx, lot); err != nil {
			return nil, err
		}
	}

	var bidLots []core.BidLot
	for _, lot := range lots {
		if lot.Side != core.LotSideCollateral {
			continue
		}

		tradable, err := s.registry.CanTrade(ctx, lot.AssetID)
		if err != nil {
			return nil, err
		}

		seize := decimal.Zero
		if tradable {
			seize = lot.Amount.Mul(percentage).Mul(ratio).Truncate(amountPrecision)
		}

		// one ledger write per lot: the closing bid bundles the seized
		// share and the leftover refund into a single subtraction
		out := seize
		if closing {
			out = lot.Amount.Sub(lot.Filled)
		}
		if out.LessThanOrEqual(decimal.Zero) {
			continue
		}

		if err := s.collateral.Sub(ctx, tx, auction.Address, lot.AssetID, out); err != nil {
			return nil, err
		}

		if seize.IsPositive() {
			if err := s.custody.TransferOut(ctx, tx, bidder, lot.AssetID, seize); err != nil {
				return nil, err
			}

			bidLots = append(bidLots, core.BidLot{AssetID: lot.AssetID, Amount: seize})
		}

		if closing {
			leftover := out.Sub(seize)
			if leftover.IsPositive() {
				if err := s.custody.TransferOut(ctx, tx, auction.Address, lot.AssetID, leftover); err != nil {
					return nil, err
				}
			}
		}

		lot.Filled = lot.Filled.Add(out)
		if err := s.store.UpdateLot(ctx, tx, lot); err != nil {
			return nil, err
		}
	}

	auction.Filled = auction.Filled.Add(percentage)
	if closing {
		auction.Filled = one
		auction.State = core.AuctionStateClosed
		auction.ClosedAt = sql.NullTime{Time: now, Valid: true}
	}

	if err := s.store.Update(ctx, tx, auction); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(bidLots)
	if err != nil {
		return nil, err
	}

	bid := &core.Bid{
		AuctionID:     auction.ID,
		Bidder:        bidder,
		Percentage:    percentage,
		OfferingRatio: ratio,
		DebtPaid:      auction.DebtValue.Mul(percentage).Truncate(amountPrecision),
		Lots:          raw,
		TraceID:       id.GenTraceID(),
	}

	if err := s.store.CreateBid(ctx, tx, bid); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithField("auction", auction.ID).WithField("bidder", bidder)
	log.Infof("bid %s filled at offering ratio %s", percentage, ratio)
	if closing {
		log.Infof("auction closed")
	}

	return bid, nil
}
