package custody

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type custodyService struct {
	store core.ICustodyStore
	vault string
}

// New new asset custody. vault is the omnibus address holding everything
// transferred into the protocol.
func New(store core.ICustodyStore, vault string) core.AssetCustody {
	return &custodyService{
		store: store,
		vault: vault,
	}
}

func (s *custodyService) TransferIn(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	if err := s.debit(ctx, tx, address, assetID, amount, core.ErrInsufficientAllowance); err != nil {
		return err
	}

	return s.credit(ctx, tx, s.vault, assetID, amount)
}

func (s *custodyService) TransferOut(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	if err := s.debit(ctx, tx, s.vault, assetID, amount, core.ErrInsufficientBalance); err != nil {
		return err
	}

	return s.credit(ctx, tx, address, assetID, amount)
}

func (s *custodyService) MintAsset(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	return s.credit(ctx, tx, address, assetID, amount)
}

func (s *custodyService) BurnAsset(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	return s.debit(ctx, tx, address, assetID, amount, core.ErrInsufficientAllowance)
}

func (s *custodyService) BalanceOf(ctx context.Context, address, assetID string) (decimal.Decimal, error) {
	account, err := s.store.Find(ctx, nil, address, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

func (s *custodyService) credit(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	account, err := s.store.Find(ctx, tx, address, assetID)
	if err != nil {
		return err
	}

	if account.ID == 0 {
		account.Balance = amount
		return s.store.Save(ctx, tx, account)
	}

	account.Balance = account.Balance.Add(amount)
	return s.store.Update(ctx, tx, account)
}

func (s *custodyService) debit(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal, shortfall error) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	account, err := s.store.Find(ctx, tx, address, assetID)
	if err != nil {
		return err
	}

	if account.ID == 0 || account.Balance.LessThan(amount) {
		return shortfall
	}

	account.Balance = account.Balance.Sub(amount)
	return s.store.Update(ctx, tx, account)
}
