package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// pool names. The collateral pool and the debt pool are two instances
// of the same ledger, differing only by name and authorized writer.
const (
	PoolCollateral = "collateral"
	PoolDebt       = "debt"
)

// LedgerEntry per (pool, account, token) balance row
type LedgerEntry struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Pool      string          `sql:"size:16;unique_index:entry_idx" json:"pool"`
	Address   string          `sql:"size:36;unique_index:entry_idx" json:"address"`
	AssetID   string          `sql:"size:36;unique_index:entry_idx" json:"asset_id"`
	Balance   decimal.Decimal `sql:"type:decimal(32,8)" json:"balance"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// LedgerToken enrolled token row. Enrollment happens on the first add and
// is never undone; the insertion id fixes the enumeration order so total
// value computations are deterministic. The unique index doubles as the
// membership check.
type LedgerToken struct {
	ID           uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Pool         string          `sql:"size:16;unique_index:token_idx" json:"pool"`
	AssetID      string          `sql:"size:36;unique_index:token_idx" json:"asset_id"`
	TotalBalance decimal.Decimal `sql:"type:decimal(32,8)" json:"total_balance"`
	Version      int64           `sql:"default:0" json:"version"`
	CreatedAt    time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ILedgerStore ledger store interface
type ILedgerStore interface {
	Save(ctx context.Context, tx *db.DB, entry *LedgerEntry) error
	Update(ctx context.Context, tx *db.DB, entry *LedgerEntry) error
	// Find returns an entry with ID == 0 when no row exists yet
	Find(ctx context.Context, pool, address, assetID string) (*LedgerEntry, error)
	FindByAddress(ctx context.Context, pool, address string) ([]*LedgerEntry, error)
	FindByAsset(ctx context.Context, pool, assetID string) ([]*LedgerEntry, error)
	Addresses(ctx context.Context, pool string) ([]string, error)
	Tokens(ctx context.Context, pool string) ([]*LedgerToken, error)
	// FindToken returns a token with ID == 0 when the asset is not enrolled
	FindToken(ctx context.Context, pool, assetID string) (*LedgerToken, error)
	SaveToken(ctx context.Context, tx *db.DB, token *LedgerToken) error
	UpdateToken(ctx context.Context, tx *db.DB, token *LedgerToken) error
}

// ILedgerReader read-only view over one pool, safe to hand to guards and
// handlers. Totals are reference-denomination values priced by the feed.
type ILedgerReader interface {
	BalanceOf(ctx context.Context, address, assetID string) (decimal.Decimal, error)
	EntriesOf(ctx context.Context, address string) ([]*LedgerEntry, error)
	Addresses(ctx context.Context) ([]string, error)
	TotalOf(ctx context.Context, address string) (decimal.Decimal, error)
	// TotalOfInc values the account as if assetID's balance were raised by delta
	TotalOfInc(ctx context.Context, address, assetID string, delta decimal.Decimal) (decimal.Decimal, error)
	// TotalOfDec values the account as if assetID's balance were lowered by delta
	TotalOfDec(ctx context.Context, address, assetID string, delta decimal.Decimal) (decimal.Decimal, error)
	Total(ctx context.Context) (decimal.Decimal, error)
}

// ILedgerService the full ledger surface. Only the position engine and the
// liquidation auction may hold one; everything else takes the reader.
type ILedgerService interface {
	ILedgerReader
	Add(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	Sub(ctx context.Context, tx *db.DB, address, assetID string, amount decimal.Decimal) error
	// Audit panics when a token total diverges from the sum of its balances
	Audit(ctx context.Context) error
}
