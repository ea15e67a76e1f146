package price

import (
	"context"
	"time"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type priceStore struct {
	db *db.DB
}

// New new price store
func New(db *db.DB) core.IPriceStore {
	return &priceStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Price{})
		if err := tx.AutoMigrate(core.Price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *priceStore) Save(ctx context.Context, tx *db.DB, price *core.Price) error {
	if price.ID == 0 {
		return tx.Update().Where("asset_id=?", price.AssetID).FirstOrCreate(price).Error
	}

	version := price.Version
	price.Version++
	updates := map[string]interface{}{
		"raw":       price.Raw,
		"price":     price.Price,
		"content":   price.Content,
		"posted_at": price.PostedAt,
		"version":   price.Version,
	}
	return tx.Update().Model(core.Price{}).Where("id=? and version=?", price.ID, version).Updates(updates).Error
}

func (s *priceStore) Find(ctx context.Context, assetID string) (*core.Price, error) {
	var price core.Price
	if err := s.db.View().Where("asset_id=?", assetID).First(&price).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.Price{AssetID: assetID}, nil
		}
		return nil, err
	}

	return &price, nil
}

func (s *priceStore) All(ctx context.Context) ([]*core.Price, error) {
	var prices []*core.Price
	if err := s.db.View().Order("id ASC").Find(&prices).Error; err != nil {
		return nil, err
	}

	return prices, nil
}

func (s *priceStore) DeleteStale(ctx context.Context, before time.Time) error {
	return s.db.Update().Where("posted_at < ?", before).Delete(core.Price{}).Error
}
