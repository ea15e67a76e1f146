package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// auction states
const (
	AuctionStateOpen   = "Open"
	AuctionStateClosed = "Closed"
)

// lot sides
const (
	LotSideCollateral = "collateral"
	LotSideDebt       = "debt"
)

// Auction a time-priced liquidation over one insolvent account. The row id
// is the auction nonce.
type Auction struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"nonce"`
	Address   string          `sql:"size:36;index:auction_addr_idx" json:"address"`
	StartedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"started_at"`
	DebtValue decimal.Decimal `sql:"type:decimal(32,8)" json:"debt_value"`
	Filled    decimal.Decimal `sql:"type:decimal(12,8);default:0" json:"filled"`
	State     string          `sql:"size:16" json:"state"`
	ClosedAt  sql.NullTime    `json:"closed_at,omitempty"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AuctionLot one token of the snapshot frozen at open time. Filled tracks
// the amount already seized (collateral side) or burnt (debt side); it may
// never exceed Amount.
type AuctionLot struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AuctionID uint64          `sql:"unique_index:lot_idx" json:"auction_id"`
	Side      string          `sql:"size:16;unique_index:lot_idx" json:"side"`
	AssetID   string          `sql:"size:36;unique_index:lot_idx" json:"asset_id"`
	Amount    decimal.Decimal `sql:"type:decimal(32,8)" json:"amount"`
	Filled    decimal.Decimal `sql:"type:decimal(32,8);default:0" json:"filled"`
	Version   int64           `sql:"default:0" json:"version"`
}

// BidLot one transferred collateral token inside a bid record
type BidLot struct {
	AssetID string          `json:"asset_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// Bid a partial fill of an auction at the offering ratio in force when the
// bid was sequenced
type Bid struct {
	ID            uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AuctionID     uint64          `sql:"index:bid_auction_idx" json:"auction_id"`
	Bidder        string          `sql:"size:36" json:"bidder"`
	Percentage    decimal.Decimal `sql:"type:decimal(12,8)" json:"percentage"`
	OfferingRatio decimal.Decimal `sql:"type:decimal(12,8)" json:"offering_ratio"`
	DebtPaid      decimal.Decimal `sql:"type:decimal(32,8)" json:"debt_paid"`
	Lots          types.JSONText  `sql:"type:varchar(2048)" json:"lots,omitempty"`
	TraceID       string          `sql:"size:36" json:"trace_id"`
	CreatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IAuctionStore auction store interface
type IAuctionStore interface {
	Create(ctx context.Context, tx *db.DB, auction *Auction, lots []*AuctionLot) error
	// Find returns an auction with ID == 0 when the nonce is unknown
	Find(ctx context.Context, nonce uint64) (*Auction, error)
	// FindOpenByAddress returns an auction with ID == 0 when none is open
	FindOpenByAddress(ctx context.Context, address string) (*Auction, error)
	ListOpen(ctx context.Context) ([]*Auction, error)
	List(ctx context.Context, limit int) ([]*Auction, error)
	Update(ctx context.Context, tx *db.DB, auction *Auction) error
	Lots(ctx context.Context, auctionID uint64) ([]*AuctionLot, error)
	UpdateLot(ctx context.Context, tx *db.DB, lot *AuctionLot) error
	CreateBid(ctx context.Context, tx *db.DB, bid *Bid) error
	Bids(ctx context.Context, auctionID uint64) ([]*Bid, error)
}

// IAuctionService liquidation auction state machine
type IAuctionService interface {
	Open(ctx context.Context, initiator, target string, now time.Time) (*Auction, error)
	Bid(ctx context.Context, nonce uint64, bidder string, percentage decimal.Decimal, now time.Time) (*Bid, error)
	// Liquidate opens and fully fills an auction in one atomic call
	Liquidate(ctx context.Context, bidder, target string, now time.Time) (*Bid, error)
	ForceClose(ctx context.Context, nonce uint64, now time.Time) error
	OfferingRatio(ctx context.Context, elapsed time.Duration) (decimal.Decimal, error)
}
