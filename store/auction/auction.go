package auction

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type auctionStore struct {
	db *db.DB
}

// New new auction store
func New(db *db.DB) core.IAuctionStore {
	return &auctionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.Auction{}).AutoMigrate(core.Auction{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.AuctionLot{}).AutoMigrate(core.AuctionLot{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.Bid{}).AutoMigrate(core.Bid{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *auctionStore) Create(ctx context.Context, tx *db.DB, auction *core.Auction, lots []*core.AuctionLot) error {
	if err := tx.Update().Create(auction).Error; err != nil {
		return err
	}

	for _, lot := range lots {
		lot.AuctionID = auction.ID
		if err := tx.Update().Create(lot).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *auctionStore) Find(ctx context.Context, nonce uint64) (*core.Auction, error) {
	var auction core.Auction
	if err := s.db.View().Where("id=?", nonce).First(&auction).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.Auction{}, nil
		}
		return nil, err
	}

	return &auction, nil
}

func (s *auctionStore) FindOpenByAddress(ctx context.Context, address string) (*core.Auction, error) {
	var auction core.Auction
	if err := s.db.View().Where("address=? and state=?", address, core.AuctionStateOpen).First(&auction).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.Auction{}, nil
		}
		return nil, err
	}

	return &auction, nil
}

func (s *auctionStore) ListOpen(ctx context.Context) ([]*core.Auction, error) {
	var auctions []*core.Auction
	if err := s.db.View().Where("state=?", core.AuctionStateOpen).Order("id ASC").Find(&auctions).Error; err != nil {
		return nil, err
	}

	return auctions, nil
}

func (s *auctionStore) List(ctx context.Context, limit int) ([]*core.Auction, error) {
	if limit <= 0 {
		limit = 100
	}

	var auctions []*core.Auction
	if err := s.db.View().Order("id DESC").Limit(limit).Find(&auctions).Error; err != nil {
		return nil, err
	}

	return auctions, nil
}

func (s *auctionStore) Update(ctx context.Context, tx *db.DB, auction *core.Auction) error {
	version := auction.Version
	auction.Version++
	updates := map[string]interface{}{
		"filled":    auction.Filled,
		"state":     auction.State,
		"closed_at": auction.ClosedAt,
		"version":   auction.Version,
	}
	update := tx.Update().Model(core.Auction{}).Where("id=? and version=?", auction.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}

	// a stale fill racing another writer must not land its burns and
	// seizures while the auction row update is dropped
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}

func (s *auctionStore) Lots(ctx context.Context, auctionID uint64) ([]*core.AuctionLot, error) {
	var lots []*core.AuctionLot
	if err := s.db.View().Where("auction_id=?", auctionID).Order("id ASC").Find(&lots).Error; err != nil {
		return nil, err
	}

	return lots, nil
}

func (s *auctionStore) UpdateLot(ctx context.Context, tx *db.DB, lot *core.AuctionLot) error {
	version := lot.Version
	lot.Version++
	updates := map[string]interface{}{
		"filled":  lot.Filled,
		"version": lot.Version,
	}
	update := tx.Update().Model(core.AuctionLot{}).Where("id=? and version=?", lot.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}

func (s *auctionStore) CreateBid(ctx context.Context, tx *db.DB, bid *core.Bid) error {
	return tx.Update().Create(bid).Error
}

func (s *auctionStore) Bids(ctx context.Context, auctionID uint64) ([]*core.Bid, error) {
	var bids []*core.Bid
	if err := s.db.View().Where("auction_id=?", auctionID).Order("id ASC").Find(&bids).Error; err != nil {
		return nil, err
	}

	return bids, nil
}
