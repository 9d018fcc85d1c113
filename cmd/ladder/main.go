// Command ladder prints a grid ladder for the given parameters.
//
//	ladder -price 2650 -amount 50000 -decline 0.3
//	ladder -preset eth.yaml -lang zh
//	ladder -preset eth.yaml -price 2700 -json
//	ladder -price 2650 -amount 50000 -plain -strict
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kjannette/trahn-ladder/internal/config"
	"github.com/kjannette/trahn-ladder/internal/render"
	"github.com/kjannette/trahn-ladder/internal/risk"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

// presetFile is the YAML layout of a preset file.
type presetFile struct {
	Name            string                `yaml:"name"`
	Params          strategy.LadderParams `yaml:",inline"`
	MaxTotalCapital float64               `yaml:"maxTotalCapital"`
	MaxLevelAmount  float64               `yaml:"maxLevelAmount"`
}

type output struct {
	Name     string                `json:"name,omitempty"`
	Params   strategy.LadderParams `json:"params"`
	Levels   []strategy.GridLevel  `json:"levels"`
	Stats    strategy.LadderStats  `json:"stats"`
	Warnings []string              `json:"warnings"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config load error: %v\n", err)
		return 1
	}
	defaults := cfg.LadderDefaults()

	fs := flag.NewFlagSet("ladder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		presetPath = fs.String("preset", "", "YAML preset file")
		price      = fs.Float64("price", defaults.Price, "reference price")
		amount     = fs.Float64("amount", defaults.Amount, "base buy amount per level")
		decline    = fs.Float64("decline", defaults.MaxPercentOfDecline, "max decline ratio, 0 < x < 1")
		increase   = fs.Float64("increase", defaults.IncreasePercentPerGrid, "buy amount growth per small step")
		retained   = fs.Float64("retained", defaults.NumberOfRetainedProfits, "share of profit retained as units, 0..1")
		middle     = fs.Bool("middle", defaults.HasMiddleGrid, "emit medium (15%) levels")
		big        = fs.Bool("big", defaults.HasBigGrid, "emit large (30%) levels")
		maxCapital = fs.Float64("max-capital", cfg.MaxTotalCapital, "warn above this total buy amount (0 = off)")
		maxLevel   = fs.Float64("max-level", cfg.MaxLevelAmount, "warn above this per-level buy amount (0 = off)")
		asJSON     = fs.Bool("json", false, "print JSON instead of a table")
		plain      = fs.Bool("plain", false, "print a plain box table without colours")
		strict     = fs.Bool("strict", false, "exit 1 when the ladder exceeds a budget limit")
		lang       = fs.String("lang", "en", "class labels: en or zh")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	preset := presetFile{
		Params:          defaults,
		MaxTotalCapital: cfg.MaxTotalCapital,
		MaxLevelAmount:  cfg.MaxLevelAmount,
	}
	if *presetPath != "" {
		if err := loadPreset(*presetPath, &preset); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
	}

	// Explicit flags override the preset file.
	p := &preset.Params
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "price":
			p.Price = *price
		case "amount":
			p.Amount = *amount
		case "decline":
			p.MaxPercentOfDecline = *decline
		case "increase":
			p.IncreasePercentPerGrid = *increase
		case "retained":
			p.NumberOfRetainedProfits = *retained
		case "middle":
			p.HasMiddleGrid = *middle
		case "big":
			p.HasBigGrid = *big
		case "max-capital":
			preset.MaxTotalCapital = *maxCapital
		case "max-level":
			preset.MaxLevelAmount = *maxLevel
		}
	})

	levels, err := strategy.BuildLadder(preset.Params)
	if err != nil {
		fmt.Fprintf(stderr, "cannot build ladder: %v\n", err)
		return 1
	}
	stats := strategy.Summarize(levels)

	guardian := risk.NewGuardian(risk.Limits{
		MaxTotalCapital: preset.MaxTotalCapital,
		MaxLevelAmount:  preset.MaxLevelAmount,
	})
	if *strict {
		if err := guardian.CheckLadder(stats, levels); err != nil {
			fmt.Fprintf(stderr, "over budget: %v\n", err)
			return 1
		}
	}
	warnings := []string{}
	for _, b := range guardian.Breaches(stats, levels) {
		warnings = append(warnings, b.Message)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output{
			Name:     preset.Name,
			Params:   preset.Params,
			Levels:   levels,
			Stats:    stats,
			Warnings: warnings,
		}); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return 1
		}
		return 0
	}

	labels := strategy.LabelsFor(*lang)
	if *plain {
		fmt.Fprintln(stdout, strategy.FormatLadderDisplay(levels, preset.Params, labels))
		for _, w := range warnings {
			fmt.Fprintf(stdout, "! %s\n", w)
		}
		return 0
	}
	fmt.Fprintln(stdout, render.Ladder(levels, preset.Params, labels, warnings))
	return 0
}

// loadPreset decodes path over dst, so keys missing from the file keep
// their current values.
func loadPreset(path string, dst *presetFile) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read preset")
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "parse preset %s", path)
	}
	return nil
}
