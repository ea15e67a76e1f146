package token

import (
	"context"

	"forge/core"
)

type registry struct {
	store core.ITokenStore
}

// New new token registry over the token store. Tokens never registered
// answer false to every capability.
func New(store core.ITokenStore) core.TokenRegistry {
	return &registry{store: store}
}

func (r *registry) CanDeposit(ctx context.Context, assetID string) (bool, error) {
	t, err := r.store.Find(ctx, assetID)
	if err != nil {
		return false, err
	}

	return t.ID != 0 && t.Depositable, nil
}

func (r *registry) CanMint(ctx context.Context, assetID string) (bool, error) {
	t, err := r.store.Find(ctx, assetID)
	if err != nil {
		return false, err
	}

	return t.ID != 0 && t.Mintable, nil
}

func (r *registry) CanTrade(ctx context.Context, assetID string) (bool, error) {
	t, err := r.store.Find(ctx, assetID)
	if err != nil {
		return false, err
	}

	return t.ID != 0 && t.Tradable, nil
}

func (r *registry) PriceDecimals(ctx context.Context, assetID string) (int32, error) {
	t, err := r.store.Find(ctx, assetID)
	if err != nil {
		return 0, err
	}

	if t.ID == 0 {
		return 8, nil
	}

	return t.PriceDecimals, nil
}
