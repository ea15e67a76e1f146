package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// PriceFeed converts a token to its reference-denomination unit price.
// A zero price means "no known price" and makes dependent operations fail
// with ErrNoValue.
type PriceFeed interface {
	GetPrice(ctx context.Context, assetID string) (decimal.Decimal, error)
}

// Price latest posted price for one asset. Raw is the integer ticker value
// as posted and Price the value scaled by the token's price decimals.
type Price struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID   string          `sql:"size:36;unique_index:price_asset_idx" json:"asset_id"`
	Raw       decimal.Decimal `sql:"type:decimal(32,0)" json:"raw"`
	Price     decimal.Decimal `sql:"type:decimal(32,12)" json:"price"`
	Content   types.JSONText  `sql:"type:varchar(1024)" json:"content,omitempty"`
	PostedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"posted_at"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// PriceTicker price ticker pulled from the oracle endpoint
type PriceTicker struct {
	Provider string          `json:"provider,omitempty"`
	AssetID  string          `json:"asset_id,omitempty"`
	Symbol   string          `json:"symbol,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
}

// IPriceStore price store interface
type IPriceStore interface {
	Save(ctx context.Context, tx *db.DB, price *Price) error
	// Find returns a price with ID == 0 when nothing was posted yet
	Find(ctx context.Context, assetID string) (*Price, error)
	All(ctx context.Context) ([]*Price, error)
	DeleteStale(ctx context.Context, before time.Time) error
}

// IPriceService the posted price feed. Post scales the raw ticker value by
// the token's price decimals before storing it.
type IPriceService interface {
	PriceFeed
	Post(ctx context.Context, tx *db.DB, assetID string, raw decimal.Decimal) error
}

// IPriceOracleService pulls tickers from the configured oracle endpoint
type IPriceOracleService interface {
	PullPriceTicker(ctx context.Context, assetID string, t time.Time) (*PriceTicker, error)
}
