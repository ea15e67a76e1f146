package auction

import (
	"time"

	"forge/core"
	"forge/pkg/number"

	"github.com/shopspring/decimal"
)

const ratioPrecision = 8

// reference curve over the default five day window. Between anchors the
// ratio rises linearly; past the last anchor it stays at 100%.
var curveAnchors = []struct {
	at    decimal.Decimal
	ratio decimal.Decimal
}{
	{decimal.NewFromInt(0), number.Decimal("0.3")},
	{decimal.NewFromInt(80), number.Decimal("0.32")},
	{decimal.NewFromInt(120), number.Decimal("0.34")},
	{decimal.NewFromInt(1800), number.Decimal("0.4707")},
	{decimal.NewFromInt(3600), number.Decimal("0.6")},
	{decimal.NewFromInt(259200), number.Decimal("0.8428")},
	{decimal.NewFromInt(432000), decimal.New(1, 0)},
}

var (
	defaultWindow     = 5 * 24 * time.Hour
	defaultStartRatio = number.Decimal("0.3")
	one               = decimal.New(1, 0)
)

// shape interpolates the reference curve at the given elapsed seconds
func shape(seconds decimal.Decimal) decimal.Decimal {
	first := curveAnchors[0]
	if seconds.LessThanOrEqual(first.at) {
		return first.ratio
	}

	last := curveAnchors[len(curveAnchors)-1]
	if seconds.GreaterThanOrEqual(last.at) {
		return last.ratio
	}

	for i := 1; i < len(curveAnchors); i++ {
		hi := curveAnchors[i]
		if seconds.GreaterThan(hi.at) {
			continue
		}

		lo := curveAnchors[i-1]
		span := hi.at.Sub(lo.at)
		rise := hi.ratio.Sub(lo.ratio)
		return lo.ratio.Add(rise.Mul(seconds.Sub(lo.at)).DivRound(span, ratioPrecision))
	}

	return last.ratio
}

// offeringRatio evaluates the curve under the effective parameters. A
// non-default window stretches the reference curve in time; a non-default
// start ratio remaps its vertical span onto [start, 1].
func offeringRatio(params *core.Params, elapsed time.Duration) decimal.Decimal {
	if elapsed < 0 {
		elapsed = 0
	}

	seconds := decimal.NewFromFloat(elapsed.Seconds())
	if params.AuctionWindow > 0 && params.AuctionWindow != defaultWindow {
		scale := decimal.NewFromFloat(defaultWindow.Seconds()).
			DivRound(decimal.NewFromFloat(params.AuctionWindow.Seconds()), ratioPrecision)
		seconds = seconds.Mul(scale)
	}

	ratio := shape(seconds)

	start := params.AuctionStartRatio
	if start.IsPositive() && !start.Equal(defaultStartRatio) && start.LessThan(one) {
		progress := ratio.Sub(defaultStartRatio).DivRound(one.Sub(defaultStartRatio), ratioPrecision)
		ratio = start.Add(progress.Mul(one.Sub(start))).Truncate(ratioPrecision)
	}

	if ratio.GreaterThan(one) {
		ratio = one
	}

	return ratio
}
