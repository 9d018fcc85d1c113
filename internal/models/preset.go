package models

import (
	"time"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

// Preset is a named, saved set of ladder parameters.
type Preset struct {
	Name      string                `json:"name"`
	Params    strategy.LadderParams `json:"params"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}
