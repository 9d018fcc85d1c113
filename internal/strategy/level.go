package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SpacingClass identifies which grid spacing produced a level.
type SpacingClass int

const (
	Small SpacingClass = iota
	Medium
	Large
)

// Spacing percents as fractions of the reference price.
const (
	SmallSpacing  = 0.05
	MediumSpacing = 0.15
	LargeSpacing  = 0.30
)

func (c SpacingClass) Percent() float64 {
	switch c {
	case Medium:
		return MediumSpacing
	case Large:
		return LargeSpacing
	default:
		return SmallSpacing
	}
}

func (c SpacingClass) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	}
	return fmt.Sprintf("SpacingClass(%d)", int(c))
}

func (c SpacingClass) MarshalText() ([]byte, error) {
	if c < Small || c > Large {
		return nil, fmt.Errorf("unknown spacing class %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *SpacingClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "small":
		*c = Small
	case "medium":
		*c = Medium
	case "large":
		*c = Large
	default:
		return fmt.Errorf("unknown spacing class %q", string(b))
	}
	return nil
}

// GridLevel is one rung of the ladder. BuyAmount and SellAmount are the
// effective amounts after flooring to whole units.
type GridLevel struct {
	Class            SpacingClass `json:"class"`
	Tier             float64      `json:"tier"`
	BuyPrice         float64      `json:"buyPrice"`
	SellPrice        float64      `json:"sellPrice"`
	BuyAmount        float64      `json:"buyAmount"`
	BuyUnits         int64        `json:"buyUnits"`
	SellAmount       float64      `json:"sellAmount"`
	SellUnits        int64        `json:"sellUnits"`
	Profit           float64      `json:"profit"`
	ReturnRate       float64      `json:"returnRate"`
	ReturnRateString string       `json:"returnRateString"`
	RetainedProfit   float64      `json:"retainedProfit"`
	RetainedUnits    float64      `json:"retainedUnits"`
}

// maxUnits is the first float64 unit count that no longer fits in int64.
const maxUnits = float64(math.MaxInt64)

// NewLevel builds a single rung at tier*referencePrice, selling one spacing
// higher. Sell units are floored, so the rounding remainder ends up in
// RetainedProfit rather than being dropped.
func NewLevel(referencePrice, tier float64, class SpacingClass, requestedBuyAmount, retentionRatio float64) (GridLevel, error) {
	spacing := class.Percent()

	buyPrice := tier * referencePrice
	buyUnits := math.Floor(requestedBuyAmount / buyPrice)
	if buyUnits <= 0 || math.IsNaN(buyUnits) {
		return GridLevel{}, &ZeroLotError{
			Class:           class,
			Tier:            tier,
			BuyPrice:        buyPrice,
			RequestedAmount: requestedBuyAmount,
		}
	}
	if buyUnits >= maxUnits {
		return GridLevel{}, &InvalidConfigurationError{
			Field:  "amount",
			Value:  requestedBuyAmount,
			Reason: fmt.Sprintf("buys more units than int64 holds at %g", buyPrice),
		}
	}
	buyAmount := buyUnits * buyPrice

	sellPrice := (tier + spacing) * referencePrice
	gross := buyUnits * sellPrice
	profit := gross - buyAmount
	rate := profit / buyAmount * 100
	if !finite(sellPrice) || !finite(gross) || !finite(rate) {
		return GridLevel{}, &InvalidConfigurationError{
			Field:  "price",
			Value:  referencePrice,
			Reason: "sell side overflows float64",
		}
	}

	rawRetained := profit * retentionRatio
	sellUnits := math.Floor((gross - rawRetained) / sellPrice)
	sellAmount := sellUnits * sellPrice
	retained := gross - sellAmount

	return GridLevel{
		Class:            class,
		Tier:             tier,
		BuyPrice:         buyPrice,
		SellPrice:        sellPrice,
		BuyAmount:        buyAmount,
		BuyUnits:         int64(buyUnits),
		SellAmount:       sellAmount,
		SellUnits:        int64(sellUnits),
		Profit:           profit,
		ReturnRate:       rate,
		// Rounds the shortest decimal form half away from zero, not the exact
		// binary value; no tier on the 0.05 grid lands on an x.xx5 rate.
		ReturnRateString: decimal.NewFromFloat(rate).StringFixed(2) + "%",
		RetainedProfit:   retained,
		RetainedUnits:    retained / sellPrice,
	}, nil
}

// roundTo rounds half away from zero to the given number of decimal places.
// NaN and ±Inf are returned unchanged.
func roundTo(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
