package ledger

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const amountPrecision = 8

type ledgerService struct {
	pool  string
	store core.ILedgerStore
	feed  core.PriceFeed
}

// New new ledger service bound to one pool
func New(store core.ILedgerStore, feed core.PriceFeed, pool string) core.ILedgerService {
	return &ledgerService{
		pool:  pool,
		store: store,
		feed:  feed,
	}
}

func (s *ledgerService) Add(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	amount = amount.Truncate(amountPrecision)

	entry, err := s.store.Find(ctx, s.pool, address, assetID)
	if err != nil {
		return err
	}

	if entry.ID == 0 {
		entry.Balance = amount
		if err := s.store.Save(ctx, tx, entry); err != nil {
			return err
		}
	} else {
		entry.Balance = entry.Balance.Add(amount)
		if err := s.store.Update(ctx, tx, entry); err != nil {
			return err
		}
	}

	token, err := s.store.FindToken(ctx, s.pool, assetID)
	if err != nil {
		return err
	}

	if token.ID == 0 {
		// first add enrolls the token
		token.TotalBalance = amount
		return s.store.SaveToken(ctx, tx, token)
	}

	token.TotalBalance = token.TotalBalance.Add(amount)
	return s.store.UpdateToken(ctx, tx, token)
}

func (s *ledgerService) Sub(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	amount = amount.Truncate(amountPrecision)

	entry, err := s.store.Find(ctx, s.pool, address, assetID)
	if err != nil {
		return err
	}

	if entry.ID == 0 || entry.Balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	entry.Balance = entry.Balance.Sub(amount)
	if err := s.store.Update(ctx, tx, entry); err != nil {
		return err
	}

	token, err := s.store.FindToken(ctx, s.pool, assetID)
	if err != nil {
		return err
	}

	if token.ID == 0 || token.TotalBalance.LessThan(amount) {
		// a balance passed while its total cannot cover it: the core
		// accounting invariant is already broken
		logger.FromContext(ctx).Panicf("ledger %s: total of %s below balance sub", s.pool, assetID)
	}

	token.TotalBalance = token.TotalBalance.Sub(amount)
	return s.store.UpdateToken(ctx, tx, token)
}

func (s *ledgerService) BalanceOf(ctx context.Context, address, assetID string) (decimal.Decimal, error) {
	entry, err := s.store.Find(ctx, s.pool, address, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	return entry.Balance, nil
}

func (s *ledgerService) EntriesOf(ctx context.Context, address string) ([]*core.LedgerEntry, error) {
	return s.store.FindByAddress(ctx, s.pool, address)
}

func (s *ledgerService) Addresses(ctx context.Context) ([]string, error) {
	return s.store.Addresses(ctx, s.pool)
}

func (s *ledgerService) TotalOf(ctx context.Context, address string) (decimal.Decimal, error) {
	return s.totalOf(ctx, address, "", decimal.Zero)
}

func (s *ledgerService) TotalOfInc(ctx context.Context, address, assetID string, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.totalOf(ctx, address, assetID, delta)
}

func (s *ledgerService) TotalOfDec(ctx context.Context, address, assetID string, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.totalOf(ctx, address, assetID, delta.Neg())
}

// totalOf values the account with assetID's balance hypothetically shifted
// by delta, without touching state
func (s *ledgerService) totalOf(ctx context.Context, address, assetID string, delta decimal.Decimal) (decimal.Decimal, error) {
	entries, err := s.store.FindByAddress(ctx, s.pool, address)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	adjusted := assetID == ""

	for _, entry := range entries {
		balance := entry.Balance
		if entry.AssetID == assetID {
			balance = balance.Add(delta)
			adjusted = true
			if balance.IsNegative() {
				return decimal.Zero, core.ErrInsufficientBalance
			}
		}

		if balance.IsZero() {
			continue
		}

		price, err := s.feed.GetPrice(ctx, entry.AssetID)
		if err != nil {
			return decimal.Zero, err
		}

		total = total.Add(balance.Mul(price))
	}

	if !adjusted {
		// the account holds none of assetID yet
		if delta.IsNegative() {
			return decimal.Zero, core.ErrInsufficientBalance
		}

		if delta.IsPositive() {
			price, err := s.feed.GetPrice(ctx, assetID)
			if err != nil {
				return decimal.Zero, err
			}

			total = total.Add(delta.Mul(price))
		}
	}

	return total.Truncate(16), nil
}

func (s *ledgerService) Total(ctx context.Context) (decimal.Decimal, error) {
	tokens, err := s.store.Tokens(ctx, s.pool)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, token := range tokens {
		if token.TotalBalance.IsZero() {
			continue
		}

		price, err := s.feed.GetPrice(ctx, token.AssetID)
		if err != nil {
			return decimal.Zero, err
		}

		total = total.Add(token.TotalBalance.Mul(price))
	}

	return total.Truncate(16), nil
}

func (s *ledgerService) Audit(ctx context.Context) error {
	tokens, err := s.store.Tokens(ctx, s.pool)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		entries, err := s.store.FindByAsset(ctx, s.pool, token.AssetID)
		if err != nil {
			return err
		}

		sum := decimal.Zero
		for _, entry := range entries {
			sum = sum.Add(entry.Balance)
		}

		if !sum.Equal(token.TotalBalance) {
			logger.FromContext(ctx).Panicf("ledger %s: token %s total %s != balance sum %s",
				s.pool, token.AssetID, token.TotalBalance, sum)
		}
	}

	return nil
}
