package token

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type tokenStore struct {
	db *db.DB
}

// New new token store
func New(db *db.DB) core.ITokenStore {
	return &tokenStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Token{})
		if err := tx.AutoMigrate(core.Token{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *tokenStore) Save(ctx context.Context, tx *db.DB, token *core.Token) error {
	return tx.Update().Where("asset_id=?", token.AssetID).FirstOrCreate(token).Error
}

func (s *tokenStore) Find(ctx context.Context, assetID string) (*core.Token, error) {
	var token core.Token
	if err := s.db.View().Where("asset_id=?", assetID).First(&token).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.Token{AssetID: assetID}, nil
		}
		return nil, err
	}

	return &token, nil
}

func (s *tokenStore) All(ctx context.Context) ([]*core.Token, error) {
	var tokens []*core.Token
	if err := s.db.View().Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, err
	}

	return tokens, nil
}

func (s *tokenStore) Update(ctx context.Context, tx *db.DB, token *core.Token) error {
	version := token.Version
	token.Version++
	updates := map[string]interface{}{
		"symbol":         token.Symbol,
		"depositable":    token.Depositable,
		"mintable":       token.Mintable,
		"tradable":       token.Tradable,
		"price_decimals": token.PriceDecimals,
		"version":        token.Version,
	}
	update := tx.Update().Model(core.Token{}).Where("id=? and version=?", token.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}
