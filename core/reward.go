package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// RewardState global reward accumulator, a single row mutated on every
// ledger-touching call
type RewardState struct {
	ID                   uint64          `sql:"PRIMARY_KEY" json:"id"`
	RatePerSecond        decimal.Decimal `sql:"type:decimal(32,16)" json:"rate_per_second"`
	EpochEnd             time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"epoch_end"`
	LastUpdate           time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"last_update"`
	RewardPerTokenStored decimal.Decimal `sql:"type:decimal(42,24)" json:"reward_per_token_stored"`
	NotifiedTotal        decimal.Decimal `sql:"type:decimal(32,8)" json:"notified_total"`
	ClaimedTotal         decimal.Decimal `sql:"type:decimal(32,8)" json:"claimed_total"`
	ForfeitedTotal       decimal.Decimal `sql:"type:decimal(32,8)" json:"forfeited_total"`
	Version              int64           `sql:"default:0" json:"version"`
	UpdatedAt            time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AccountReward per-account reward checkpoint and stash
type AccountReward struct {
	ID                 uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Address            string          `sql:"size:36;unique_index:reward_addr_idx" json:"address"`
	RewardPerTokenPaid decimal.Decimal `sql:"type:decimal(42,24)" json:"reward_per_token_paid"`
	Stashed            decimal.Decimal `sql:"type:decimal(32,8)" json:"stashed"`
	Version            int64           `sql:"default:0" json:"version"`
	CreatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IRewardStore reward store interface
type IRewardStore interface {
	// State returns a state with ID == 0 before the first save
	State(ctx context.Context) (*RewardState, error)
	SaveState(ctx context.Context, tx *db.DB, state *RewardState) error
	// FindAccount returns an account with ID == 0 when no row exists yet
	FindAccount(ctx context.Context, address string) (*AccountReward, error)
	SaveAccount(ctx context.Context, tx *db.DB, account *AccountReward) error
	Accounts(ctx context.Context) ([]*AccountReward, error)
}

// IRewardService epoch-based flat-rate reward accrual keyed to the debt
// pool value. Update must run before any balance mutation of the account.
type IRewardService interface {
	// Notify starts a new epoch; an unfinished epoch's remainder is folded in
	Notify(ctx context.Context, tx *db.DB, amount decimal.Decimal, now time.Time) error
	RewardPerToken(ctx context.Context, now time.Time) (decimal.Decimal, error)
	Update(ctx context.Context, tx *db.DB, address string, now time.Time) error
	Earned(ctx context.Context, address string, now time.Time) (decimal.Decimal, error)
	// Claim pops the stash; eligibility is the caller's concern
	Claim(ctx context.Context, tx *db.DB, address string, now time.Time) (decimal.Decimal, error)
	// Forfeit burns the stash of an ineligible account
	Forfeit(ctx context.Context, tx *db.DB, address string, now time.Time) (decimal.Decimal, error)
}
