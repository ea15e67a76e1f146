package custody

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type custodyStore struct {
	db *db.DB
}

// New new custody store
func New(db *db.DB) core.ICustodyStore {
	return &custodyStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.CustodyAccount{})
		if err := tx.AutoMigrate(core.CustodyAccount{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *custodyStore) Find(ctx context.Context, tx *db.DB, address, assetID string) (*core.CustodyAccount, error) {
	view := s.db.View()
	if tx != nil {
		view = tx.Update()
	}

	var account core.CustodyAccount
	if err := view.Where("address=? and asset_id=?", address, assetID).First(&account).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.CustodyAccount{Address: address, AssetID: assetID}, nil
		}
		return nil, err
	}

	return &account, nil
}

func (s *custodyStore) FindByAddress(ctx context.Context, address string) ([]*core.CustodyAccount, error) {
	var accounts []*core.CustodyAccount
	if err := s.db.View().Where("address=?", address).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}

	return accounts, nil
}

func (s *custodyStore) Save(ctx context.Context, tx *db.DB, account *core.CustodyAccount) error {
	return tx.Update().Where("address=? and asset_id=?", account.Address, account.AssetID).FirstOrCreate(account).Error
}

func (s *custodyStore) Update(ctx context.Context, tx *db.DB, account *core.CustodyAccount) error {
	version := account.Version
	account.Version++
	updates := map[string]interface{}{
		"balance": account.Balance,
		"version": account.Version,
	}
	update := tx.Update().Model(core.CustodyAccount{}).Where("id=? and version=?", account.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}
