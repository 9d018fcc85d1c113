package models

import (
	"encoding/json"
	"time"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

// LadderSnapshot records a computed ladder. PresetName is empty for ladders
// built from the configured defaults.
type LadderSnapshot struct {
	ID         string                `json:"id"`
	PresetName string                `json:"presetName,omitempty"`
	Price      float64               `json:"price"`
	Params     strategy.LadderParams `json:"params"`
	LevelsJSON json.RawMessage       `json:"levels"`
	Stats      strategy.LadderStats  `json:"stats"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// NewLadderSnapshot marshals levels for storage. ID and CreatedAt are
// assigned by the store.
func NewLadderSnapshot(presetName string, p strategy.LadderParams, levels []strategy.GridLevel) (*LadderSnapshot, error) {
	raw, err := json.Marshal(levels)
	if err != nil {
		return nil, err
	}
	return &LadderSnapshot{
		PresetName: presetName,
		Price:      p.Price,
		Params:     p,
		LevelsJSON: raw,
		Stats:      strategy.Summarize(levels),
	}, nil
}

func (s *LadderSnapshot) Levels() ([]strategy.GridLevel, error) {
	var out []strategy.GridLevel
	if len(s.LevelsJSON) == 0 {
		return out, nil
	}
	err := json.Unmarshal(s.LevelsJSON, &out)
	return out, err
}
