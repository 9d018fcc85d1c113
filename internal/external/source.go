package external

import (
	"context"

	"github.com/pkg/errors"
)

// PriceSource supplies the reference price a ladder is built from.
type PriceSource interface {
	Price(ctx context.Context) (float64, error)
}

// StaticPrice always returns the same price.
type StaticPrice float64

func (s StaticPrice) Price(context.Context) (float64, error) {
	if s <= 0 {
		return 0, errors.Errorf("static price must be positive, got %v", float64(s))
	}
	return float64(s), nil
}
