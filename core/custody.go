package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// CustodyAccount external fungible token holdings per address. The vault
// address holds everything transferred into the protocol.
type CustodyAccount struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Address   string          `sql:"size:36;unique_index:custody_idx" json:"address"`
	AssetID   string          `sql:"size:36;unique_index:custody_idx" json:"asset_id"`
	Balance   decimal.Decimal `sql:"type:decimal(32,8)" json:"balance"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ICustodyStore custody store interface
type ICustodyStore interface {
	// Find returns an account with ID == 0 when no row exists yet. A
	// non-nil tx reads through the transaction so earlier writes in the
	// same transaction are visible.
	Find(ctx context.Context, tx *db.DB, address, assetID string) (*CustodyAccount, error)
	FindByAddress(ctx context.Context, address string) ([]*CustodyAccount, error)
	Save(ctx context.Context, tx *db.DB, account *CustodyAccount) error
	Update(ctx context.Context, tx *db.DB, account *CustodyAccount) error
}

// AssetCustody moves fungible tokens between external holders and the
// protocol vault. All methods are fail-fast: a shortfall on the paying
// side aborts without partial effect.
type AssetCustody interface {
	// TransferIn pulls amount of assetID from address into the vault
	TransferIn(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	// TransferOut pays amount of assetID from the vault to address
	TransferOut(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	// MintAsset creates new units of assetID held by address
	MintAsset(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	// BurnAsset destroys units of assetID held by address
	BurnAsset(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, address, assetID string) (decimal.Decimal, error)
}
