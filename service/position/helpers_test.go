package position

import (
	"context"
	"testing"
	"time"

	"forge/core"
	auctionservice "forge/service/auction"
	custodyservice "forge/service/custody"
	"forge/service/guard"
	ledgerservice "forge/service/ledger"
	rewardservice "forge/service/reward"
	tokenservice "forge/service/token"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testDB runs transaction closures against the in-memory stores and
// restores their pre-transaction state when the closure fails, matching
// the rollback a real transaction gives the services
type testDB struct {
	env *env
}

func (t testDB) Tx(fn func(tx *db.DB) error) error {
	snap := t.env.snapshot()
	if err := fn(nil); err != nil {
		t.env.restore(snap)
		return err
	}
	return nil
}

type staticFeed map[string]decimal.Decimal

func (f staticFeed) GetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return f[assetID], nil
}

type staticParams struct {
	p *core.Params
}

func (s staticParams) Current(ctx context.Context) (*core.Params, error) { return s.p, nil }
func (s staticParams) Set(ctx context.Context, key, value string) error  { return nil }

type memLedgerStore struct {
	nextEntryID uint64
	nextTokenID uint64
	entries     []*core.LedgerEntry
	tokens      []*core.LedgerToken
}

func (s *memLedgerStore) Save(ctx context.Context, tx *db.DB, entry *core.LedgerEntry) error {
	s.nextEntryID++
	entry.ID = s.nextEntryID
	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *memLedgerStore) Update(ctx context.Context, tx *db.DB, entry *core.LedgerEntry) error {
	for i, e := range s.entries {
		if e.ID == entry.ID {
			if e.Version != entry.Version {
				return core.ErrStaleVersion
			}
			entry.Version++
			clone := *entry
			s.entries[i] = &clone
		}
	}
	return nil
}

func (s *memLedgerStore) Find(ctx context.Context, pool, address, assetID string) (*core.LedgerEntry, error) {
	for _, e := range s.entries {
		if e.Pool == pool && e.Address == address && e.AssetID == assetID {
			clone := *e
			return &clone, nil
		}
	}
	return &core.LedgerEntry{Pool: pool, Address: address, AssetID: assetID}, nil
}

func (s *memLedgerStore) FindByAddress(ctx context.Context, pool, address string) ([]*core.LedgerEntry, error) {
	var out []*core.LedgerEntry
	for _, e := range s.entries {
		if e.Pool == pool && e.Address == address {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memLedgerStore) FindByAsset(ctx context.Context, pool, assetID string) ([]*core.LedgerEntry, error) {
	var out []*core.LedgerEntry
	for _, e := range s.entries {
		if e.Pool == pool && e.AssetID == assetID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memLedgerStore) Addresses(ctx context.Context, pool string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range s.entries {
		if e.Pool == pool && !seen[e.Address] {
			seen[e.Address] = true
			out = append(out, e.Address)
		}
	}
	return out, nil
}

func (s *memLedgerStore) Tokens(ctx context.Context, pool string) ([]*core.LedgerToken, error) {
	var out []*core.LedgerToken
	for _, token := range s.tokens {
		if token.Pool == pool {
			clone := *token
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memLedgerStore) FindToken(ctx context.Context, pool, assetID string) (*core.LedgerToken, error) {
	for _, token := range s.tokens {
		if token.Pool == pool && token.AssetID == assetID {
			clone := *token
			return &clone, nil
		}
	}
	return &core.LedgerToken{Pool: pool, AssetID: assetID}, nil
}

func (s *memLedgerStore) SaveToken(ctx context.Context, tx *db.DB, token *core.LedgerToken) error {
	s.nextTokenID++
	token.ID = s.nextTokenID
	clone := *token
	s.tokens = append(s.tokens, &clone)
	return nil
}

func (s *memLedgerStore) UpdateToken(ctx context.Context, tx *db.DB, token *core.LedgerToken) error {
	for i, t := range s.tokens {
		if t.ID == token.ID {
			if t.Version != token.Version {
				return core.ErrStaleVersion
			}
			token.Version++
			clone := *token
			s.tokens[i] = &clone
		}
	}
	return nil
}

type memRewardStore struct {
	state    *core.RewardState
	accounts map[string]*core.AccountReward
	nextID   uint64
}

func (s *memRewardStore) State(ctx context.Context) (*core.RewardState, error) {
	if s.state == nil {
		return &core.RewardState{}, nil
	}
	clone := *s.state
	return &clone, nil
}

func (s *memRewardStore) SaveState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	if state.ID == 0 {
		state.ID = 1
		clone := *state
		s.state = &clone
		return nil
	}

	if s.state == nil || s.state.Version != state.Version {
		return core.ErrStaleVersion
	}

	state.Version++
	clone := *state
	s.state = &clone
	return nil
}

func (s *memRewardStore) FindAccount(ctx context.Context, address string) (*core.AccountReward, error) {
	if account, ok := s.accounts[address]; ok {
		clone := *account
		return &clone, nil
	}
	return &core.AccountReward{Address: address}, nil
}

func (s *memRewardStore) SaveAccount(ctx context.Context, tx *db.DB, account *core.AccountReward) error {
	if account.ID == 0 {
		s.nextID++
		account.ID = s.nextID
		clone := *account
		s.accounts[account.Address] = &clone
		return nil
	}

	existing, ok := s.accounts[account.Address]
	if !ok || existing.Version != account.Version {
		return core.ErrStaleVersion
	}

	account.Version++
	clone := *account
	s.accounts[account.Address] = &clone
	return nil
}

func (s *memRewardStore) Accounts(ctx context.Context) ([]*core.AccountReward, error) {
	var out []*core.AccountReward
	for _, account := range s.accounts {
		clone := *account
		out = append(out, &clone)
	}
	return out, nil
}

type memCustodyStore struct {
	nextID   uint64
	accounts []*core.CustodyAccount
}

func (s *memCustodyStore) Find(ctx context.Context, tx *db.DB, address, assetID string) (*core.CustodyAccount, error) {
	for _, a := range s.accounts {
		if a.Address == address && a.AssetID == assetID {
			clone := *a
			return &clone, nil
		}
	}
	return &core.CustodyAccount{Address: address, AssetID: assetID}, nil
}

func (s *memCustodyStore) FindByAddress(ctx context.Context, address string) ([]*core.CustodyAccount, error) {
	var out []*core.CustodyAccount
	for _, a := range s.accounts {
		if a.Address == address {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memCustodyStore) Save(ctx context.Context, tx *db.DB, account *core.CustodyAccount) error {
	s.nextID++
	account.ID = s.nextID
	clone := *account
	s.accounts = append(s.accounts, &clone)
	return nil
}

func (s *memCustodyStore) Update(ctx context.Context, tx *db.DB, account *core.CustodyAccount) error {
	for i, a := range s.accounts {
		if a.ID == account.ID {
			if a.Version != account.Version {
				return core.ErrStaleVersion
			}
			account.Version++
			clone := *account
			s.accounts[i] = &clone
		}
	}
	return nil
}

type memTokenStore struct {
	nextID uint64
	tokens []*core.Token
}

func (s *memTokenStore) Save(ctx context.Context, tx *db.DB, token *core.Token) error {
	s.nextID++
	token.ID = s.nextID
	clone := *token
	s.tokens = append(s.tokens, &clone)
	return nil
}

func (s *memTokenStore) Find(ctx context.Context, assetID string) (*core.Token, error) {
	for _, token := range s.tokens {
		if token.AssetID == assetID {
			clone := *token
			return &clone, nil
		}
	}
	return &core.Token{AssetID: assetID}, nil
}

func (s *memTokenStore) All(ctx context.Context) ([]*core.Token, error) {
	var out []*core.Token
	for _, token := range s.tokens {
		clone := *token
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memTokenStore) Update(ctx context.Context, tx *db.DB, token *core.Token) error {
	for i, t := range s.tokens {
		if t.ID == token.ID {
			if t.Version != token.Version {
				return core.ErrStaleVersion
			}
			token.Version++
			clone := *token
			s.tokens[i] = &clone
		}
	}
	return nil
}

type memAuctionStore struct {
	nextAuctionID uint64
	nextLotID     uint64
	nextBidID     uint64
	auctions      []*core.Auction
	lots          []*core.AuctionLot
	bids          []*core.Bid
}

func (s *memAuctionStore) Create(ctx context.Context, tx *db.DB, auction *core.Auction, lots []*core.AuctionLot) error {
	s.nextAuctionID++
	auction.ID = s.nextAuctionID
	clone := *auction
	s.auctions = append(s.auctions, &clone)

	for _, lot := range lots {
		s.nextLotID++
		lot.ID = s.nextLotID
		lot.AuctionID = auction.ID
		lotClone := *lot
		s.lots = append(s.lots, &lotClone)
	}
	return nil
}

func (s *memAuctionStore) Find(ctx context.Context, nonce uint64) (*core.Auction, error) {
	for _, a := range s.auctions {
		if a.ID == nonce {
			clone := *a
			return &clone, nil
		}
	}
	return &core.Auction{}, nil
}

func (s *memAuctionStore) FindOpenByAddress(ctx context.Context, address string) (*core.Auction, error) {
	for _, a := range s.auctions {
		if a.Address == address && a.State == core.AuctionStateOpen {
			clone := *a
			return &clone, nil
		}
	}
	return &core.Auction{}, nil
}

func (s *memAuctionStore) ListOpen(ctx context.Context) ([]*core.Auction, error) {
	var out []*core.Auction
	for _, a := range s.auctions {
		if a.State == core.AuctionStateOpen {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memAuctionStore) List(ctx context.Context, limit int) ([]*core.Auction, error) {
	var out []*core.Auction
	for _, a := range s.auctions {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memAuctionStore) Update(ctx context.Context, tx *db.DB, auction *core.Auction) error {
	for i, a := range s.auctions {
		if a.ID == auction.ID {
			if a.Version != auction.Version {
				return core.ErrStaleVersion
			}
			auction.Version++
			clone := *auction
			s.auctions[i] = &clone
		}
	}
	return nil
}

func (s *memAuctionStore) Lots(ctx context.Context, auctionID uint64) ([]*core.AuctionLot, error) {
	var out []*core.AuctionLot
	for _, lot := range s.lots {
		if lot.AuctionID == auctionID {
			clone := *lot
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memAuctionStore) UpdateLot(ctx context.Context, tx *db.DB, lot *core.AuctionLot) error {
	for i, l := range s.lots {
		if l.ID == lot.ID {
			if l.Version != lot.Version {
				return core.ErrStaleVersion
			}
			lot.Version++
			clone := *lot
			s.lots[i] = &clone
		}
	}
	return nil
}

func (s *memAuctionStore) CreateBid(ctx context.Context, tx *db.DB, bid *core.Bid) error {
	s.nextBidID++
	bid.ID = s.nextBidID
	clone := *bid
	s.bids = append(s.bids, &clone)
	return nil
}

func (s *memAuctionStore) Bids(ctx context.Context, auctionID uint64) ([]*core.Bid, error) {
	var out []*core.Bid
	for _, bid := range s.bids {
		if bid.AuctionID == auctionID {
			clone := *bid
			out = append(out, &clone)
		}
	}
	return out, nil
}

// env the fully wired engine over in-memory stores
type env struct {
	feed         staticFeed
	params       *core.Params
	app          *core.App
	ledgerStore  *memLedgerStore
	rewardStore  *memRewardStore
	custodyStore *memCustodyStore
	auctionStore *memAuctionStore
	tokenStore   *memTokenStore

	collateral core.ILedgerService
	debt       core.ILedgerService
	guard      core.ISolvencyService
	rewards    core.IRewardService
	registry   core.TokenRegistry
	custody    core.AssetCustody
	position   *positionService
	auctions   core.IAuctionService
}

// envSnapshot store state captured when a transaction begins; the
// stores only ever replace element pointers, so copying the slice and
// map headers is enough to freeze a consistent view
type envSnapshot struct {
	entries     []*core.LedgerEntry
	ledgerItems []*core.LedgerToken
	nextEntryID uint64
	nextTokenID uint64

	rewardState    *core.RewardState
	rewardAccounts map[string]*core.AccountReward
	rewardNextID   uint64

	custodyAccounts []*core.CustodyAccount
	custodyNextID   uint64

	auctions      []*core.Auction
	lots          []*core.AuctionLot
	bids          []*core.Bid
	nextAuctionID uint64
	nextLotID     uint64
	nextBidID     uint64

	tokens      []*core.Token
	tokenNextID uint64
}

func (e *env) snapshot() *envSnapshot {
	accounts := make(map[string]*core.AccountReward, len(e.rewardStore.accounts))
	for address, account := range e.rewardStore.accounts {
		accounts[address] = account
	}

	return &envSnapshot{
		entries:     append([]*core.LedgerEntry(nil), e.ledgerStore.entries...),
		ledgerItems: append([]*core.LedgerToken(nil), e.ledgerStore.tokens...),
		nextEntryID: e.ledgerStore.nextEntryID,
		nextTokenID: e.ledgerStore.nextTokenID,

		rewardState:    e.rewardStore.state,
		rewardAccounts: accounts,
		rewardNextID:   e.rewardStore.nextID,

		custodyAccounts: append([]*core.CustodyAccount(nil), e.custodyStore.accounts...),
		custodyNextID:   e.custodyStore.nextID,

		auctions:      append([]*core.Auction(nil), e.auctionStore.auctions...),
		lots:          append([]*core.AuctionLot(nil), e.auctionStore.lots...),
		bids:          append([]*core.Bid(nil), e.auctionStore.bids...),
		nextAuctionID: e.auctionStore.nextAuctionID,
		nextLotID:     e.auctionStore.nextLotID,
		nextBidID:     e.auctionStore.nextBidID,

		tokens:      append([]*core.Token(nil), e.tokenStore.tokens...),
		tokenNextID: e.tokenStore.nextID,
	}
}

func (e *env) restore(snap *envSnapshot) {
	e.ledgerStore.entries = snap.entries
	e.ledgerStore.tokens = snap.ledgerItems
	e.ledgerStore.nextEntryID = snap.nextEntryID
	e.ledgerStore.nextTokenID = snap.nextTokenID

	e.rewardStore.state = snap.rewardState
	e.rewardStore.accounts = snap.rewardAccounts
	e.rewardStore.nextID = snap.rewardNextID

	e.custodyStore.accounts = snap.custodyAccounts
	e.custodyStore.nextID = snap.custodyNextID

	e.auctionStore.auctions = snap.auctions
	e.auctionStore.lots = snap.lots
	e.auctionStore.bids = snap.bids
	e.auctionStore.nextAuctionID = snap.nextAuctionID
	e.auctionStore.nextLotID = snap.nextLotID
	e.auctionStore.nextBidID = snap.nextBidID

	e.tokenStore.tokens = snap.tokens
	e.tokenStore.nextID = snap.tokenNextID
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		feed:         staticFeed{},
		params:       core.DefaultParams(),
		ledgerStore:  &memLedgerStore{},
		rewardStore:  &memRewardStore{accounts: make(map[string]*core.AccountReward)},
		custodyStore: &memCustodyStore{},
		auctionStore: &memAuctionStore{},
		tokenStore:   &memTokenStore{},
	}

	// fees muddy most assertions; dedicated tests opt back in
	e.params.MintFeeRate = decimal.Zero

	e.app = &core.App{
		Vault:         "vault",
		BonusAssetID:  "frg",
		RewardAssetID: "frg",
		FeeVault:      "fees",
		Keeper:        "keeper",
	}

	params := staticParams{e.params}
	e.registry = tokenservice.New(e.tokenStore)
	e.collateral = ledgerservice.New(e.ledgerStore, e.feed, core.PoolCollateral)
	e.debt = ledgerservice.New(e.ledgerStore, e.feed, core.PoolDebt)
	e.guard = guard.New(e.collateral, e.debt, e.feed, params)
	e.rewards = rewardservice.New(e.rewardStore, e.debt, params)
	e.custody = custodyservice.New(e.custodyStore, e.app.Vault)

	tx := testDB{env: e}
	e.position = New(tx, e.collateral, e.debt, e.guard, e.rewards, e.registry, e.custody, e.feed, params, e.auctionStore, e.app).(*positionService)
	e.auctions = auctionservice.New(tx, e.auctionStore, e.collateral, e.debt, e.guard, e.rewards, e.registry, e.custody, params, e.app)

	return e
}

func (e *env) addToken(t *testing.T, assetID, symbol string, depositable, mintable, tradable bool, price string) {
	t.Helper()

	token := &core.Token{
		AssetID:       assetID,
		Symbol:        symbol,
		Depositable:   depositable,
		Mintable:      mintable,
		Tradable:      tradable,
		PriceDecimals: 8,
	}
	require.NoError(t, e.tokenStore.Save(context.Background(), nil, token))

	if price != "" {
		d, err := decimal.NewFromString(price)
		require.NoError(t, err)
		e.feed[assetID] = d
	}
}

func (e *env) fund(t *testing.T, address, assetID, amount string) {
	t.Helper()

	d, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	require.NoError(t, e.custody.MintAsset(context.Background(), nil, address, assetID, d))
}

func (e *env) held(t *testing.T, address, assetID string) decimal.Decimal {
	t.Helper()

	balance, err := e.custody.BalanceOf(context.Background(), address, assetID)
	require.NoError(t, err)
	return balance
}

func (e *env) freezeClock(at time.Time) {
	e.position.now = func() time.Time { return at }
}
