package param

import (
	"context"
	"fmt"
	"time"

	"forge/core"

	"github.com/fox-one/pkg/property"
	"github.com/shopspring/decimal"
)

var ratioKeys = map[string]bool{
	core.ParamMinCollateralRatio:     true,
	core.ParamRewardEligibilityRatio: true,
	core.ParamMintFeeRate:            true,
	core.ParamMinMintAmount:          true,
	core.ParamAuctionStartRatio:      true,
	core.ParamAuctionFeeRate:         true,
	core.ParamInitiatorBonus:         true,
}

var durationKeys = map[string]bool{
	core.ParamEpochLength:   true,
	core.ParamAuctionWindow: true,
}

type paramService struct {
	property property.Store
}

// New new param service over the property store. Unset keys fall back to
// the protocol defaults.
func New(property property.Store) core.IParamService {
	return &paramService{property: property}
}

func (s *paramService) Current(ctx context.Context) (*core.Params, error) {
	params := core.DefaultParams()

	for key := range ratioKeys {
		v, err := s.property.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		raw := v.String()
		if raw == "" {
			continue
		}

		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}

		s.apply(params, key, d, 0)
	}

	for key := range durationKeys {
		v, err := s.property.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		raw := v.String()
		if raw == "" {
			continue
		}

		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}

		s.apply(params, key, decimal.Zero, d)
	}

	return params, nil
}

func (s *paramService) apply(params *core.Params, key string, d decimal.Decimal, dur time.Duration) {
	switch key {
	case core.ParamMinCollateralRatio:
		params.MinCollateralRatio = d
	case core.ParamRewardEligibilityRatio:
		params.RewardEligibilityRatio = d
	case core.ParamMintFeeRate:
		params.MintFeeRate = d
	case core.ParamMinMintAmount:
		params.MinMintAmount = d
	case core.ParamAuctionStartRatio:
		params.AuctionStartRatio = d
	case core.ParamAuctionFeeRate:
		params.AuctionFeeRate = d
	case core.ParamInitiatorBonus:
		params.InitiatorBonus = d
	case core.ParamEpochLength:
		params.EpochLength = dur
	case core.ParamAuctionWindow:
		params.AuctionWindow = dur
	}
}

func (s *paramService) Set(ctx context.Context, key, value string) error {
	switch {
	case ratioKeys[key]:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return core.ErrInvalidAmount
		}
		if d.IsNegative() {
			return core.ErrInvalidAmount
		}
	case durationKeys[key]:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return core.ErrInvalidAmount
		}
	default:
		return fmt.Errorf("unknown param %q", key)
	}

	return s.property.Save(ctx, key, value)
}
