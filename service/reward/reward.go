package reward

import (
	"context"
	"time"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const (
	ratePrecision        = 16
	accumulatorPrecision = 24
	payoutPrecision      = 8
)

type rewardService struct {
	store  core.IRewardStore
	debt   core.ILedgerReader
	params core.IParamService
}

// New new reward accrual service. The debt pool value is the principal
// metric.
func New(store core.IRewardStore, debt core.ILedgerReader, params core.IParamService) core.IRewardService {
	return &rewardService{
		store:  store,
		debt:   debt,
		params: params,
	}
}

func (s *rewardService) Notify(ctx context.Context, tx *db.DB, amount decimal.Decimal, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return core.ErrInvalidAmount
	}

	params, err := s.params.Current(ctx)
	if err != nil {
		return err
	}

	state, err := s.store.State(ctx)
	if err != nil {
		return err
	}

	// settle the accumulator before the rate changes
	perToken, err := s.rewardPerToken(ctx, state, now)
	if err != nil {
		return err
	}
	state.RewardPerTokenStored = perToken

	budget := amount
	if now.Before(state.EpochEnd) {
		// fold the unspent remainder of the running epoch into the new one
		remainder := decimal.NewFromInt(int64(state.EpochEnd.Sub(now) / time.Second)).Mul(state.RatePerSecond)
		budget = budget.Add(remainder)
	}

	seconds := decimal.NewFromInt(int64(params.EpochLength / time.Second))
	state.RatePerSecond = budget.DivRound(seconds, ratePrecision)
	state.EpochEnd = now.Add(params.EpochLength)
	state.LastUpdate = now
	state.NotifiedTotal = state.NotifiedTotal.Add(amount)

	return s.store.SaveState(ctx, tx, state)
}

func (s *rewardService) RewardPerToken(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	state, err := s.store.State(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return s.rewardPerToken(ctx, state, now)
}

func (s *rewardService) rewardPerToken(ctx context.Context, state *core.RewardState, now time.Time) (decimal.Decimal, error) {
	if state.ID == 0 {
		return decimal.Zero, nil
	}

	applicable := now
	if applicable.After(state.EpochEnd) {
		applicable = state.EpochEnd
	}

	if !applicable.After(state.LastUpdate) {
		return state.RewardPerTokenStored, nil
	}

	principal, err := s.debt.Total(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	// nobody holds debt, the accumulator stands still
	if principal.LessThanOrEqual(decimal.Zero) {
		return state.RewardPerTokenStored, nil
	}

	elapsed := decimal.NewFromInt(int64(applicable.Sub(state.LastUpdate) / time.Second))
	accrued := elapsed.Mul(state.RatePerSecond).DivRound(principal, accumulatorPrecision)

	return state.RewardPerTokenStored.Add(accrued), nil
}

// Update settles the global accumulator and the account's stash. It must
// run before any balance mutation that touches the account.
func (s *rewardService) Update(ctx context.Context, tx *db.DB, address string, now time.Time) error {
	state, err := s.store.State(ctx)
	if err != nil {
		return err
	}

	perToken, err := s.rewardPerToken(ctx, state, now)
	if err != nil {
		return err
	}

	// nothing notified yet, nothing to settle globally
	if state.ID != 0 {
		state.RewardPerTokenStored = perToken
		lastApplicable := now
		if lastApplicable.After(state.EpochEnd) {
			lastApplicable = state.EpochEnd
		}
		state.LastUpdate = lastApplicable

		if err := s.store.SaveState(ctx, tx, state); err != nil {
			return err
		}
	}

	account, err := s.store.FindAccount(ctx, address)
	if err != nil {
		return err
	}

	earned, err := s.earned(ctx, account, perToken)
	if err != nil {
		return err
	}

	account.Stashed = earned
	account.RewardPerTokenPaid = perToken

	return s.store.SaveAccount(ctx, tx, account)
}

func (s *rewardService) Earned(ctx context.Context, address string, now time.Time) (decimal.Decimal, error) {
	state, err := s.store.State(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	perToken, err := s.rewardPerToken(ctx, state, now)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := s.store.FindAccount(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	return s.earned(ctx, account, perToken)
}

func (s *rewardService) earned(ctx context.Context, account *core.AccountReward, perToken decimal.Decimal) (decimal.Decimal, error) {
	principal, err := s.debt.TotalOf(ctx, account.Address)
	if err != nil {
		return decimal.Zero, err
	}

	accrued := principal.Mul(perToken.Sub(account.RewardPerTokenPaid)).Truncate(payoutPrecision)

	return account.Stashed.Add(accrued), nil
}

func (s *rewardService) Claim(ctx context.Context, tx *db.DB, address string, now time.Time) (decimal.Decimal, error) {
	return s.pop(ctx, tx, address, now, false)
}

func (s *rewardService) Forfeit(ctx context.Context, tx *db.DB, address string, now time.Time) (decimal.Decimal, error) {
	return s.pop(ctx, tx, address, now, true)
}

// pop settles the account up to now and takes its whole stash in one
// write per row, so it must not be combined with Update in the same
// transaction
func (s *rewardService) pop(ctx context.Context, tx *db.DB, address string, now time.Time, forfeit bool) (decimal.Decimal, error) {
	state, err := s.store.State(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	perToken, err := s.rewardPerToken(ctx, state, now)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := s.store.FindAccount(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	amount, err := s.earned(ctx, account, perToken)
	if err != nil {
		return decimal.Zero, err
	}

	account.Stashed = decimal.Zero
	account.RewardPerTokenPaid = perToken
	if err := s.store.SaveAccount(ctx, tx, account); err != nil {
		return decimal.Zero, err
	}

	if state.ID != 0 {
		state.RewardPerTokenStored = perToken
		lastApplicable := now
		if lastApplicable.After(state.EpochEnd) {
			lastApplicable = state.EpochEnd
		}
		state.LastUpdate = lastApplicable

		if amount.IsPositive() {
			if forfeit {
				state.ForfeitedTotal = state.ForfeitedTotal.Add(amount)
			} else {
				state.ClaimedTotal = state.ClaimedTotal.Add(amount)
			}
		}

		if err := s.store.SaveState(ctx, tx, state); err != nil {
			return decimal.Zero, err
		}
	}

	return amount, nil
}
