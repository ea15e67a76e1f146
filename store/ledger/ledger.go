package ledger

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type ledgerStore struct {
	db *db.DB
}

// New new ledger store
func New(db *db.DB) core.ILedgerStore {
	return &ledgerStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.LedgerEntry{})
		if err := tx.AutoMigrate(core.LedgerEntry{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.LedgerToken{}).AutoMigrate(core.LedgerToken{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *ledgerStore) Save(ctx context.Context, tx *db.DB, entry *core.LedgerEntry) error {
	return tx.Update().Where("pool=? and address=? and asset_id=?", entry.Pool, entry.Address, entry.AssetID).FirstOrCreate(entry).Error
}

func (s *ledgerStore) Update(ctx context.Context, tx *db.DB, entry *core.LedgerEntry) error {
	version := entry.Version
	entry.Version++
	updates := map[string]interface{}{
		"balance": entry.Balance,
		"version": entry.Version,
	}
	update := tx.Update().Model(core.LedgerEntry{}).Where("id=? and version=?", entry.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	// a missed version match must abort the whole transaction, not pass
	// silently alongside its sibling writes
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}

func (s *ledgerStore) Find(ctx context.Context, pool, address, assetID string) (*core.LedgerEntry, error) {
	var entry core.LedgerEntry
	if err := s.db.View().Where("pool=? and address=? and asset_id=?", pool, address, assetID).First(&entry).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.LedgerEntry{Pool: pool, Address: address, AssetID: assetID}, nil
		}
		return nil, err
	}

	return &entry, nil
}

func (s *ledgerStore) FindByAddress(ctx context.Context, pool, address string) ([]*core.LedgerEntry, error) {
	var entries []*core.LedgerEntry
	if err := s.db.View().Where("pool=? and address=?", pool, address).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *ledgerStore) FindByAsset(ctx context.Context, pool, assetID string) ([]*core.LedgerEntry, error) {
	var entries []*core.LedgerEntry
	if err := s.db.View().Where("pool=? and asset_id=?", pool, assetID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *ledgerStore) Addresses(ctx context.Context, pool string) ([]string, error) {
	var addresses []string
	if err := s.db.View().Model(core.LedgerEntry{}).Where("pool=?", pool).Pluck("DISTINCT address", &addresses).Error; err != nil {
		return nil, err
	}

	return addresses, nil
}

func (s *ledgerStore) Tokens(ctx context.Context, pool string) ([]*core.LedgerToken, error) {
	var tokens []*core.LedgerToken
	if err := s.db.View().Where("pool=?", pool).Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, err
	}

	return tokens, nil
}

func (s *ledgerStore) FindToken(ctx context.Context, pool, assetID string) (*core.LedgerToken, error) {
	var token core.LedgerToken
	if err := s.db.View().Where("pool=? and asset_id=?", pool, assetID).First(&token).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.LedgerToken{Pool: pool, AssetID: assetID}, nil
		}
		return nil, err
	}

	return &token, nil
}

func (s *ledgerStore) SaveToken(ctx context.Context, tx *db.DB, token *core.LedgerToken) error {
	return tx.Update().Where("pool=? and asset_id=?", token.Pool, token.AssetID).FirstOrCreate(token).Error
}

func (s *ledgerStore) UpdateToken(ctx context.Context, tx *db.DB, token *core.LedgerToken) error {
	version := token.Version
	token.Version++
	updates := map[string]interface{}{
		"total_balance": token.TotalBalance,
		"version":       token.Version,
	}
	update := tx.Update().Model(core.LedgerToken{}).Where("id=? and version=?", token.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}
