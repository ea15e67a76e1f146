package oracle

import (
	"context"
	"encoding/json"
	"time"

	"forge/core"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const cacheExpire = 10 * time.Second

type priceService struct {
	store    core.IPriceStore
	registry core.TokenRegistry
	cache    gcache.Cache
}

// New new posted price service
func New(store core.IPriceStore, registry core.TokenRegistry) core.IPriceService {
	return &priceService{
		store:    store,
		registry: registry,
		cache:    gcache.New(512).LRU().Build(),
	}
}

func (s *priceService) GetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	if v, err := s.cache.Get(assetID); err == nil {
		return v.(decimal.Decimal), nil
	}

	price, err := s.store.Find(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	_ = s.cache.SetWithExpire(assetID, price.Price, cacheExpire)
	return price.Price, nil
}

func (s *priceService) Post(ctx context.Context, tx *db.DB, assetID string, raw decimal.Decimal) error {
	if raw.IsNegative() {
		return core.ErrInvalidAmount
	}

	decimals, err := s.registry.PriceDecimals(ctx, assetID)
	if err != nil {
		return err
	}

	price, err := s.store.Find(ctx, assetID)
	if err != nil {
		return err
	}

	price.Raw = raw
	price.Price = raw.Shift(-decimals)
	price.PostedAt = time.Now()

	content, _ := json.Marshal(core.PriceTicker{AssetID: assetID, Price: price.Price})
	price.Content = content

	if err := s.store.Save(ctx, tx, price); err != nil {
		return err
	}

	s.cache.Remove(assetID)
	return nil
}
