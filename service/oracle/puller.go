package oracle

import (
	"context"
	"fmt"
	"time"

	"forge/core"
	"forge/pkg/resthttp"
)

type pullerService struct {
	endpoint string
}

// NewPuller new ticker puller against the oracle endpoint
func NewPuller(cfg *core.PriceOracle) core.IPriceOracleService {
	return &pullerService{endpoint: cfg.EndPoint}
}

func (s *pullerService) PullPriceTicker(ctx context.Context, assetID string, t time.Time) (*core.PriceTicker, error) {
	url := fmt.Sprintf("%s/api/tickers/%s", s.endpoint, assetID)

	var ticker core.PriceTicker
	if _, err := resthttp.Execute(resthttp.Request(ctx), "GET", url, nil, &ticker); err != nil {
		return nil, err
	}

	if ticker.AssetID == "" {
		ticker.AssetID = assetID
	}

	return &ticker, nil
}
