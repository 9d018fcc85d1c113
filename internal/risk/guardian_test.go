package risk

import (
	"errors"
	"testing"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

func ladder(t *testing.T) ([]strategy.GridLevel, strategy.LadderStats) {
	t.Helper()
	levels := []strategy.GridLevel{
		{Class: strategy.Small, Tier: 1, BuyAmount: 100},
		{Class: strategy.Small, Tier: 0.95, BuyAmount: 105},
		{Class: strategy.Small, Tier: 0.9, BuyAmount: 110},
	}
	return levels, strategy.Summarize(levels)
}

func TestCheckLadder_BuiltLadder(t *testing.T) {
	levels, err := strategy.BuildLadder(strategy.LadderParams{
		Price:               1,
		Amount:              1000,
		MaxPercentOfDecline: 0.4,
		HasMiddleGrid:       true,
		HasBigGrid:          true,
	})
	if err != nil {
		t.Fatalf("BuildLadder: %v", err)
	}
	stats := strategy.Summarize(levels)

	g := NewGuardian(Limits{MaxLevelAmount: 1000})
	if err := g.CheckLadder(stats, levels); err != nil {
		t.Fatalf("flat ladder never exceeds its own amount, got: %v", err)
	}
	g = NewGuardian(Limits{MaxTotalCapital: stats.TotalBuyAmount - 1})
	if err := g.CheckLadder(stats, levels); err == nil {
		t.Fatal("expected capital breach")
	}
}

func TestCheckLadder_WithinBudget(t *testing.T) {
	levels, stats := ladder(t)
	g := NewGuardian(Limits{MaxTotalCapital: 315, MaxLevelAmount: 110})
	if err := g.CheckLadder(stats, levels); err != nil {
		t.Fatalf("expected ladder to fit, got: %v", err)
	}
}

func TestCheckLadder_DisabledWhenZero(t *testing.T) {
	levels, stats := ladder(t)
	g := NewGuardian(Limits{})
	if got := g.Breaches(stats, levels); len(got) != 0 {
		t.Fatalf("zero limits should report nothing, got %+v", got)
	}
	if err := g.CheckLadder(stats, levels); err != nil {
		t.Fatalf("zero limits should disable checks, got: %v", err)
	}
}

func TestCheckLadder_TotalCapital(t *testing.T) {
	levels, stats := ladder(t)
	g := NewGuardian(Limits{MaxTotalCapital: 300})

	err := g.CheckLadder(stats, levels)
	var b *Breach
	if !errors.As(err, &b) {
		t.Fatalf("expected *Breach, got %v", err)
	}
	if b.Limit != "maxTotalCapital" || b.Actual != 315 {
		t.Fatalf("unexpected breach: %+v", b)
	}
	t.Logf("Correctly blocked: %v", err)
}

func TestBreaches_LevelAmount(t *testing.T) {
	levels, stats := ladder(t)
	g := NewGuardian(Limits{MaxTotalCapital: 300, MaxLevelAmount: 104})

	got := g.Breaches(stats, levels)
	if len(got) != 3 {
		t.Fatalf("expected capital + 2 level breaches, got %d: %+v", len(got), got)
	}
	if got[0].Limit != "maxTotalCapital" {
		t.Fatalf("capital breach should come first, got %s", got[0].Limit)
	}
	if got[1].Actual != 105 || got[2].Actual != 110 {
		t.Fatalf("level breaches out of order: %+v", got[1:])
	}
}
