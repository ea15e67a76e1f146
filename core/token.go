package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Token capability row of the token registry
type Token struct {
	ID            uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID       string    `sql:"size:36;unique_index:token_asset_idx" json:"asset_id"`
	Symbol        string    `sql:"size:20" json:"symbol"`
	Depositable   bool      `sql:"default:0" json:"depositable"`
	Mintable      bool      `sql:"default:0" json:"mintable"`
	Tradable      bool      `sql:"default:0" json:"tradable"`
	PriceDecimals int32     `sql:"default:8" json:"price_decimals"`
	Version       int64     `sql:"default:0" json:"version"`
	CreatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ITokenStore token store interface
type ITokenStore interface {
	Save(ctx context.Context, tx *db.DB, token *Token) error
	// Find returns a token with ID == 0 when unknown
	Find(ctx context.Context, assetID string) (*Token, error)
	All(ctx context.Context) ([]*Token, error)
	Update(ctx context.Context, tx *db.DB, token *Token) error
}

// TokenRegistry answers token capability questions. Unknown tokens answer
// false everywhere.
type TokenRegistry interface {
	CanDeposit(ctx context.Context, assetID string) (bool, error)
	CanMint(ctx context.Context, assetID string) (bool, error)
	CanTrade(ctx context.Context, assetID string) (bool, error)
	PriceDecimals(ctx context.Context, assetID string) (int32, error)
}
