package position

import (
	"context"
	"testing"
	"time"

	"forge/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.addToken(t, "zee", "ZEE", true, false, true, "")
	e.fund(t, "alice", "gem", "9999")

	// deposit rejections
	assert.Equal(t, core.ErrInvalidAmount, e.position.Deposit(ctx, "alice", "gem", decimal.Zero))
	assert.Equal(t, core.ErrDepositProhibited, e.position.Deposit(ctx, "alice", "usd", decimal.NewFromInt(1)))
	assert.Equal(t, core.ErrNoValue, e.position.Deposit(ctx, "alice", "zee", decimal.NewFromInt(1)))
	assert.Equal(t, core.ErrInsufficientAllowance, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(10000)))

	// the rejected deposit credits the ledger before the custody debit
	// fails; the whole transaction must roll back
	balance, err := e.collateral.BalanceOf(ctx, "alice", "gem")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.Equal(t, "9999", e.held(t, "alice", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())

	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	balance, err = e.collateral.BalanceOf(ctx, "alice", "gem")
	require.NoError(t, err)
	assert.Equal(t, "9999", balance.String())
	assert.Equal(t, "9999", e.held(t, "vault", "gem").String())
	assert.Equal(t, "0", e.held(t, "alice", "gem").String())

	// mint rejections
	assert.Equal(t, core.ErrMintProhibited, e.position.Mint(ctx, "alice", "gem", decimal.NewFromInt(1)))
	assert.Equal(t, core.ErrInvalidAmount, e.position.Mint(ctx, "alice", "usd", decimal.NewFromFloat(0.00005)))
	assert.Equal(t, core.ErrRatioViolation, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(3334)))

	// 9999 collateral at ratio 3 carries exactly 3333 of debt
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(3333)))
	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "3333", debt.String())
	assert.Equal(t, "3333", e.held(t, "alice", "usd").String())

	// every collateral unit is now load bearing
	assert.Equal(t, core.ErrInsufficientBalance, e.position.Withdraw(ctx, "alice", "gem", decimal.NewFromInt(10000)))
	assert.Equal(t, core.ErrRatioViolation, e.position.Withdraw(ctx, "alice", "gem", decimal.NewFromInt(1)))

	// ratio barely above 3 is far below the claim bar of 5
	claimed, err := e.position.ClaimReward(ctx, "alice")
	assert.Equal(t, core.ErrNotEligible, err)
	assert.True(t, claimed.IsZero())

	assert.Equal(t, core.ErrInsufficientBalance, e.position.Repay(ctx, "alice", "usd", decimal.NewFromInt(3334)))

	repaid, err := e.position.RepayMax(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "3333", repaid.String())
	debt, err = e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())
	assert.Equal(t, "0", e.held(t, "alice", "usd").String())

	_, err = e.position.RepayMax(ctx, "alice", "usd")
	assert.Equal(t, core.ErrInsufficientBalance, err)

	require.NoError(t, e.position.Withdraw(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	assert.Equal(t, "9999", e.held(t, "alice", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())
}

func TestDepositTruncatesToLedgerPrecision(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.fund(t, "alice", "gem", "10")

	amount, err := decimal.NewFromString("1.123456789")
	require.NoError(t, err)
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", amount))

	// the excess digit is dropped before any balance moves, so custody
	// takes exactly what the ledger credits
	balance, err := e.collateral.BalanceOf(ctx, "alice", "gem")
	require.NoError(t, err)
	assert.Equal(t, "1.12345678", balance.String())
	assert.Equal(t, "1.12345678", e.held(t, "vault", "gem").String())
	assert.Equal(t, "8.87654322", e.held(t, "alice", "gem").String())
}

func TestMintMax(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))

	_, err := e.position.MintMax(ctx, "alice", "usd", decimal.NewFromInt(2))
	assert.Equal(t, core.ErrInvalidAmount, err)

	minted, err := e.position.MintMax(ctx, "alice", "usd", decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "3333", minted.String())

	_, err = e.position.MintMax(ctx, "alice", "usd", decimal.NewFromInt(3))
	assert.Equal(t, core.ErrRatioViolation, err)
}

func TestMintFeeOnMintedAsset(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.params.MintFeeRate = decimal.NewFromFloat(0.001)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "4000")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(4000)))

	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(1000)))

	// the fee accrues as extra debt, not as a custody deduction
	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "1001", debt.String())
	assert.Equal(t, "1000", e.held(t, "alice", "usd").String())
}

func TestMintFeeOnForeignAsset(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.params.MintFeeRate = decimal.NewFromFloat(0.001)
	e.app.FeeAssetID = "gem"
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "4000")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(4000)))

	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(1000)))

	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "1000", debt.String())

	feeDebt, err := e.debt.BalanceOf(ctx, "alice", "gem")
	require.NoError(t, err)
	assert.Equal(t, "1", feeDebt.String())
}

func TestRepayMaxWithoutHoldings(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(1000)))

	// the minted tokens left the account; debt stays on the ledger
	require.NoError(t, e.custody.BurnAsset(ctx, nil, "alice", "usd", decimal.NewFromInt(1000)))

	_, err := e.position.RepayMax(ctx, "alice", "usd")
	assert.Equal(t, core.ErrInsufficientAllowance, err)
}

func TestClaimRewardEligible(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	e.fund(t, "vault", "frg", "2000")

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	e.freezeClock(t0)

	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(1000)))

	// one unit per second over a sole borrower
	require.NoError(t, e.rewards.Notify(ctx, nil, decimal.NewFromInt(604800), t0))

	e.freezeClock(t0.Add(1000 * time.Second))
	claimed, err := e.position.ClaimReward(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", claimed.String())
	assert.Equal(t, "1000", e.held(t, "alice", "frg").String())

	// the stash was popped; an immediate second claim yields nothing
	claimed, err = e.position.ClaimReward(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, claimed.IsZero())
}

func TestFlaggedAccountFrozen(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	e.fund(t, "vault", "frg", "10")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(3333)))

	e.feed["gem"] = decimal.NewFromFloat(0.5)

	insolvent, err := e.guard.IsInsolvent(ctx, "alice")
	require.NoError(t, err)
	require.True(t, insolvent)

	auction, err := e.auctions.Open(ctx, "keeper", "alice", time.Now())
	require.NoError(t, err)
	require.Equal(t, uint64(1), auction.ID)

	// the auction owns the ledger rows until it closes
	one := decimal.NewFromInt(1)
	assert.Equal(t, core.ErrAccountFlagged, e.position.Deposit(ctx, "alice", "gem", one))
	assert.Equal(t, core.ErrAccountFlagged, e.position.Withdraw(ctx, "alice", "gem", one))
	assert.Equal(t, core.ErrAccountFlagged, e.position.Mint(ctx, "alice", "usd", one))
	assert.Equal(t, core.ErrAccountFlagged, e.position.Repay(ctx, "alice", "usd", one))

	// claiming stays open but the insolvent account forfeits
	_, err = e.position.ClaimReward(ctx, "alice")
	assert.Equal(t, core.ErrNotEligible, err)
}
