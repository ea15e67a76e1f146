package position

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"forge/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// underwater builds an account with 9999 gem of collateral and 3333 usd of
// debt, then halves the gem price so its ratio lands at 1.5
func underwater(t *testing.T) *env {
	t.Helper()

	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	e.fund(t, "vault", "frg", "10")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(3333)))

	e.feed["gem"] = decimal.NewFromFloat(0.5)
	return e
}

func TestLiquidateSingleShot(t *testing.T) {
	ctx := context.Background()
	e := underwater(t)
	e.fund(t, "bob", "usd", "3333")

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	bid, err := e.auctions.Liquidate(ctx, "bob", "alice", t0)
	require.NoError(t, err)

	assert.Equal(t, "1", bid.Percentage.String())
	assert.Equal(t, "0.3", bid.OfferingRatio.String())
	assert.Equal(t, "3333", bid.DebtPaid.String())

	var lots []core.BidLot
	require.NoError(t, json.Unmarshal(bid.Lots, &lots))
	require.Len(t, lots, 1)
	assert.Equal(t, "gem", lots[0].AssetID)
	assert.Equal(t, "2999.7", lots[0].Amount.String())

	auction, err := e.auctionStore.Find(ctx, bid.AuctionID)
	require.NoError(t, err)
	assert.Equal(t, core.AuctionStateClosed, auction.State)
	assert.Equal(t, "1", auction.Filled.String())
	assert.True(t, auction.ClosedAt.Valid)

	// debt burnt, floor share seized, the rest refunded
	assert.Equal(t, "0", e.held(t, "bob", "usd").String())
	assert.Equal(t, "2999.7", e.held(t, "bob", "gem").String())
	assert.Equal(t, "6999.3", e.held(t, "alice", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())
	assert.Equal(t, "99.99", e.held(t, "fees", "usd").String())

	// the liquidator opened the auction and earns the bonus
	assert.Equal(t, "1", e.held(t, "bob", "frg").String())

	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())

	collateral, err := e.collateral.BalanceOf(ctx, "alice", "gem")
	require.NoError(t, err)
	assert.True(t, collateral.IsZero())

	require.NoError(t, e.collateral.Audit(ctx))
	require.NoError(t, e.debt.Audit(ctx))
}

func TestAuctionPartialBids(t *testing.T) {
	ctx := context.Background()
	e := underwater(t)
	e.fund(t, "bob", "usd", "1000")
	e.fund(t, "carol", "usd", "2500")

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	auction, err := e.auctions.Open(ctx, "keeper", "alice", t0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), auction.ID)
	assert.Equal(t, "1", e.held(t, "keeper", "frg").String())

	// a second open over the same account must not fork the snapshot
	_, err = e.auctions.Open(ctx, "keeper", "alice", t0)
	assert.Equal(t, core.ErrAuctionExists, err)

	_, err = e.auctions.Bid(ctx, auction.ID, "bob", decimal.Zero, t0)
	assert.Equal(t, core.ErrInvalidAmount, err)
	_, err = e.auctions.Bid(ctx, 99, "bob", decimal.NewFromFloat(0.25), t0)
	assert.Equal(t, core.ErrAuctionNotFound, err)

	bid, err := e.auctions.Bid(ctx, auction.ID, "bob", decimal.NewFromFloat(0.25), t0.Add(80*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "0.32", bid.OfferingRatio.String())
	assert.Equal(t, "799.92", e.held(t, "bob", "gem").String())
	assert.Equal(t, "166.75", e.held(t, "bob", "usd").String())

	_, err = e.auctions.Bid(ctx, auction.ID, "carol", decimal.NewFromFloat(0.8), t0.Add(time.Hour))
	assert.Equal(t, core.ErrOverfillAttempt, err)

	bid, err = e.auctions.Bid(ctx, auction.ID, "carol", decimal.NewFromFloat(0.75), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "0.6", bid.OfferingRatio.String())
	assert.Equal(t, "4499.55", e.held(t, "carol", "gem").String())
	assert.Equal(t, "0.25", e.held(t, "carol", "usd").String())

	// closing: seized shares plus the refund drain the vault exactly
	assert.Equal(t, "4699.53", e.held(t, "alice", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())
	assert.Equal(t, "99.99", e.held(t, "fees", "usd").String())

	auction, err = e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AuctionStateClosed, auction.State)

	_, err = e.auctions.Bid(ctx, auction.ID, "bob", decimal.NewFromFloat(0.1), t0.Add(2*time.Hour))
	assert.Equal(t, core.ErrAuctionClosed, err)

	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())
}

func TestStaleAuctionWriteAborts(t *testing.T) {
	ctx := context.Background()
	e := underwater(t)

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	auction, err := e.auctions.Open(ctx, "keeper", "alice", t0)
	require.NoError(t, err)

	first, err := e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)
	stale, err := e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)

	first.Filled = decimal.NewFromFloat(0.25)
	require.NoError(t, e.auctionStore.Update(ctx, nil, first))

	// a writer holding the pre-update snapshot must abort instead of
	// dropping its row while the rest of its transaction lands
	stale.Filled = decimal.NewFromFloat(0.5)
	assert.Equal(t, core.ErrStaleVersion, e.auctionStore.Update(ctx, nil, stale))

	reloaded, err := e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.25", reloaded.Filled.String())
}

func TestFailedBidLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	e := underwater(t)
	e.fund(t, "bob", "usd", "100")

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	auction, err := e.auctions.Open(ctx, "keeper", "alice", t0)
	require.NoError(t, err)

	// bob cannot cover a quarter of the debt; the burn fails after the
	// reward accrual already wrote inside the same transaction
	_, err = e.auctions.Bid(ctx, auction.ID, "bob", decimal.NewFromFloat(0.25), t0)
	assert.Equal(t, core.ErrInsufficientAllowance, err)

	reloaded, err := e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AuctionStateOpen, reloaded.State)
	assert.True(t, reloaded.Filled.IsZero())

	lots, err := e.auctionStore.Lots(ctx, auction.ID)
	require.NoError(t, err)
	require.NotEmpty(t, lots)
	for _, lot := range lots {
		assert.True(t, lot.Filled.IsZero())
	}

	assert.Equal(t, "100", e.held(t, "bob", "usd").String())
	assert.Equal(t, "9999", e.held(t, "vault", "gem").String())

	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "3333", debt.String())

	require.NoError(t, e.collateral.Audit(ctx))
	require.NoError(t, e.debt.Audit(ctx))
}

func TestOpenRequiresInsolvency(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "9999")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(9999)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(1000)))

	_, err := e.auctions.Open(ctx, "keeper", "alice", time.Now())
	assert.Equal(t, core.ErrNotEligible, err)
}

func TestLiquidateWithholdsNonTradable(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addToken(t, "gem", "GEM", true, false, true, "1")
	e.addToken(t, "rock", "ROCK", true, false, false, "1")
	e.addToken(t, "usd", "USD", false, true, true, "1")
	e.fund(t, "alice", "gem", "5000")
	e.fund(t, "alice", "rock", "1000")
	e.fund(t, "bob", "usd", "2000")
	e.fund(t, "vault", "frg", "10")
	require.NoError(t, e.position.Deposit(ctx, "alice", "gem", decimal.NewFromInt(5000)))
	require.NoError(t, e.position.Deposit(ctx, "alice", "rock", decimal.NewFromInt(1000)))
	require.NoError(t, e.position.Mint(ctx, "alice", "usd", decimal.NewFromInt(2000)))

	e.feed["gem"] = decimal.NewFromFloat(0.5)

	_, err := e.auctions.Liquidate(ctx, "bob", "alice", time.Now())
	require.NoError(t, err)

	// the non tradable token never reaches the bidder
	assert.Equal(t, "1500", e.held(t, "bob", "gem").String())
	assert.Equal(t, "0", e.held(t, "bob", "rock").String())
	assert.Equal(t, "3500", e.held(t, "alice", "gem").String())
	assert.Equal(t, "1000", e.held(t, "alice", "rock").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "rock").String())
}

func TestForceClose(t *testing.T) {
	ctx := context.Background()
	e := underwater(t)
	e.fund(t, "bob", "usd", "1000")

	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	auction, err := e.auctions.Open(ctx, "keeper", "alice", t0)
	require.NoError(t, err)

	_, err = e.auctions.Bid(ctx, auction.ID, "bob", decimal.NewFromFloat(0.25), t0)
	require.NoError(t, err)
	assert.Equal(t, "749.925", e.held(t, "bob", "gem").String())

	require.NoError(t, e.auctions.ForceClose(ctx, auction.ID, t0.Add(time.Hour)))

	// unsold collateral returns, unpaid debt stays
	assert.Equal(t, "9249.075", e.held(t, "alice", "gem").String())
	assert.Equal(t, "0", e.held(t, "vault", "gem").String())

	debt, err := e.debt.BalanceOf(ctx, "alice", "usd")
	require.NoError(t, err)
	assert.Equal(t, "2499.75", debt.String())

	auction, err = e.auctionStore.Find(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, core.AuctionStateClosed, auction.State)

	assert.Equal(t, core.ErrAuctionClosed, e.auctions.ForceClose(ctx, auction.ID, t0.Add(2*time.Hour)))
	_, err = e.auctions.Bid(ctx, auction.ID, "bob", decimal.NewFromFloat(0.1), t0.Add(2*time.Hour))
	assert.Equal(t, core.ErrAuctionClosed, err)
}
