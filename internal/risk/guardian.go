package risk

import (
	"fmt"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

// Limits holds the budget thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxTotalCapital float64
	MaxLevelAmount  float64
}

// Breach describes one exceeded limit.
type Breach struct {
	Limit     string  `json:"limit"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Message   string  `json:"message"`
}

func (b *Breach) Error() string { return b.Message }

type Guardian struct {
	limits Limits
}

func NewGuardian(limits Limits) *Guardian {
	return &Guardian{limits: limits}
}

// CheckLadder returns the first breached limit as a *Breach, or nil if the
// ladder fits the budget.
func (g *Guardian) CheckLadder(stats strategy.LadderStats, levels []strategy.GridLevel) error {
	if b := g.Breaches(stats, levels); len(b) > 0 {
		return &b[0]
	}
	return nil
}

// Breaches evaluates every limit. The capital limit is checked first, then
// each level in ladder order.
func (g *Guardian) Breaches(stats strategy.LadderStats, levels []strategy.GridLevel) []Breach {
	var out []Breach

	if g.limits.MaxTotalCapital > 0 && stats.TotalBuyAmount > g.limits.MaxTotalCapital {
		out = append(out, Breach{
			Limit:     "maxTotalCapital",
			Threshold: g.limits.MaxTotalCapital,
			Actual:    stats.TotalBuyAmount,
			Message: fmt.Sprintf("ladder needs %.2f capital, budget is %.2f",
				stats.TotalBuyAmount, g.limits.MaxTotalCapital),
		})
	}

	if g.limits.MaxLevelAmount > 0 {
		for i, l := range levels {
			if l.BuyAmount <= g.limits.MaxLevelAmount {
				continue
			}
			out = append(out, Breach{
				Limit:     "maxLevelAmount",
				Threshold: g.limits.MaxLevelAmount,
				Actual:    l.BuyAmount,
				Message: fmt.Sprintf("level %d (%s @ %.3f) buys %.2f, max per level is %.2f",
					i, l.Class, l.Tier, l.BuyAmount, g.limits.MaxLevelAmount),
			})
		}
	}

	return out
}
