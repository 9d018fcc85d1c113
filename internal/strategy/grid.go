package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// LadderParams are the inputs of a ladder. Ratios are fractions, so 0.4 for
// MaxPercentOfDecline means the ladder reaches 60% of Price.
type LadderParams struct {
	Price                   float64 `json:"price" yaml:"price"`
	Amount                  float64 `json:"amount" yaml:"amount"`
	MaxPercentOfDecline     float64 `json:"maxPercentOfDecline" yaml:"maxPercentOfDecline"`
	IncreasePercentPerGrid  float64 `json:"increasePercentPerGrid" yaml:"increasePercentPerGrid"`
	NumberOfRetainedProfits float64 `json:"numberOfRetainedProfits" yaml:"numberOfRetainedProfits"`
	HasMiddleGrid           bool    `json:"hasMiddleGrid" yaml:"hasMiddleGrid"`
	HasBigGrid              bool    `json:"hasBigGrid" yaml:"hasBigGrid"`
}

type LadderStats struct {
	Levels              int      `json:"levels"`
	SmallLevels         int      `json:"smallLevels"`
	MediumLevels        int      `json:"mediumLevels"`
	LargeLevels         int      `json:"largeLevels"`
	TotalBuyAmount      float64  `json:"totalBuyAmount"`
	TotalSellAmount     float64  `json:"totalSellAmount"`
	TotalProfit         float64  `json:"totalProfit"`
	TotalRetainedProfit float64  `json:"totalRetainedProfit"`
	TotalRetainedUnits  float64  `json:"totalRetainedUnits"`
	MaxLevelAmount      float64  `json:"maxLevelAmount"`
	LowestBuyPrice      *float64 `json:"lowestBuyPrice"`
	DeepestTier         *float64 `json:"deepestTier"`
}

var mediumEvery, largeEvery = cadence(MediumSpacing), cadence(LargeSpacing)

// cadence returns how many small steps fit in one spacing. The division is
// done in decimal so 0.15/0.05 is exactly 3.
func cadence(spacing float64) int {
	r := decimal.NewFromFloat(spacing).DivRound(decimal.NewFromFloat(SmallSpacing), 14)
	return int(r.IntPart())
}

// CadenceRatios reports after how many small steps a medium and a large
// level are emitted.
func CadenceRatios() (medium, large int) {
	return mediumEvery, largeEvery
}

func Validate(p LadderParams) error {
	switch {
	case !(p.Price > 0) || math.IsInf(p.Price, 0):
		return &InvalidConfigurationError{Field: "price", Value: p.Price, Reason: "must be positive"}
	case !(p.Amount > 0) || math.IsInf(p.Amount, 0):
		return &InvalidConfigurationError{Field: "amount", Value: p.Amount, Reason: "must be positive"}
	case !(p.MaxPercentOfDecline > 0 && p.MaxPercentOfDecline < 1):
		return &InvalidConfigurationError{Field: "maxPercentOfDecline", Value: p.MaxPercentOfDecline, Reason: "must be in (0, 1)"}
	case !(p.IncreasePercentPerGrid >= 0) || math.IsInf(p.IncreasePercentPerGrid, 0):
		return &InvalidConfigurationError{Field: "increasePercentPerGrid", Value: p.IncreasePercentPerGrid, Reason: "must be >= 0"}
	case !(p.NumberOfRetainedProfits >= 0 && p.NumberOfRetainedProfits <= 1):
		return &InvalidConfigurationError{Field: "numberOfRetainedProfits", Value: p.NumberOfRetainedProfits, Reason: "must be in [0, 1]"}
	}
	return nil
}

// BuildLadder walks the tier down from 1 in small steps until it drops below
// 1-MaxPercentOfDecline. Every step emits a small level; every third and
// sixth step additionally emit a medium and a large level. Medium and large
// tiers count down on their own (1-n*spacing) and do not follow the small
// tier of the step that emitted them.
func BuildLadder(p LadderParams) ([]GridLevel, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	minTier := 1 - p.MaxPercentOfDecline
	steps := int(math.Floor(p.MaxPercentOfDecline/SmallSpacing)) + 1
	levels := make([]GridLevel, 0, steps+steps/mediumEvery+steps/largeEvery)

	var (
		mediumCount, largeCount int
		sinceMedium, sinceLarge int
	)
	tier := 1.0
	for i := 0; tier >= minTier; i++ {
		buyAmount := roundTo((p.IncreasePercentPerGrid*float64(i)+1)*p.Amount, 0)

		lvl, err := NewLevel(p.Price, tier, Small, buyAmount, p.NumberOfRetainedProfits)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)

		if i > 0 {
			sinceMedium++
			sinceLarge++
		}

		if sinceMedium == mediumEvery {
			sinceMedium = 0
			if p.HasMiddleGrid {
				mediumCount++
				lvl, err := NewLevel(p.Price, roundTo(1-float64(mediumCount)*MediumSpacing, 3), Medium, buyAmount, p.NumberOfRetainedProfits)
				if err != nil {
					return nil, err
				}
				levels = append(levels, lvl)
			}
		}

		if sinceLarge == largeEvery {
			sinceLarge = 0
			if p.HasBigGrid {
				largeCount++
				lvl, err := NewLevel(p.Price, roundTo(1-float64(largeCount)*LargeSpacing, 3), Large, buyAmount, p.NumberOfRetainedProfits)
				if err != nil {
					return nil, err
				}
				levels = append(levels, lvl)
			}
		}

		tier = roundTo(1-float64(i+1)*SmallSpacing, 3)
	}

	return levels, nil
}

func Summarize(levels []GridLevel) LadderStats {
	s := LadderStats{Levels: len(levels)}
	for i, l := range levels {
		switch l.Class {
		case Small:
			s.SmallLevels++
		case Medium:
			s.MediumLevels++
		case Large:
			s.LargeLevels++
		}
		s.TotalBuyAmount += l.BuyAmount
		s.TotalSellAmount += l.SellAmount
		s.TotalProfit += l.Profit
		s.TotalRetainedProfit += l.RetainedProfit
		s.TotalRetainedUnits += l.RetainedUnits
		if l.BuyAmount > s.MaxLevelAmount {
			s.MaxLevelAmount = l.BuyAmount
		}
		if i == 0 || l.BuyPrice < *s.LowestBuyPrice {
			lo := l.BuyPrice
			s.LowestBuyPrice = &lo
		}
		if i == 0 || l.Tier < *s.DeepestTier {
			t := l.Tier
			s.DeepestTier = &t
		}
	}
	return s
}

func FormatLadderDisplay(levels []GridLevel, p LadderParams, labels Labels) string {
	if len(levels) == 0 {
		return "No ladder levels."
	}

	var b strings.Builder
	b.WriteString("┌──────────────────────────────────────────────────────────────────────────┐\n")
	b.WriteString("│                              GRID LADDER                                 │\n")
	b.WriteString("├──────────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&b, "│ %-6s %6s %10s %10s %8s %11s %8s %8s │\n",
		"type", "tier", "buy", "sell", "units", "amount", "profit", "return")

	for _, l := range levels {
		fmt.Fprintf(&b, "│ %-6s %6.3f %10.4f %10.4f %8d %11.2f %8.2f %8s │\n",
			labels.For(l.Class), l.Tier, l.BuyPrice, l.SellPrice,
			l.BuyUnits, l.BuyAmount, l.Profit, l.ReturnRateString)
	}

	s := Summarize(levels)
	b.WriteString("├──────────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&b, "│  Price: %10.4f │ Capital: %12.2f │ Retained: %10.2f          │\n",
		p.Price, s.TotalBuyAmount, s.TotalRetainedProfit)
	b.WriteString("└──────────────────────────────────────────────────────────────────────────┘")

	return b.String()
}

// PriceChangePercent is the absolute move from old to new in percent.
func PriceChangePercent(newPrice, oldPrice float64) float64 {
	if oldPrice == 0 {
		return 100
	}
	return math.Abs((newPrice - oldPrice) / oldPrice * 100)
}
