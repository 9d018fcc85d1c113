package repository

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"github.com/kjannette/trahn-ladder/internal/models"
)

var (
	ErrPresetNotFound    = errors.New("preset not found")
	ErrInvalidPresetName = errors.New("preset name must be 1-64 characters of letters, digits, '-' or '_'")
)

var presetNameRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidPresetName(name string) bool {
	return presetNameRegexp.MatchString(name)
}

type PresetStore interface {
	// Save inserts or replaces the preset and returns the stored row.
	Save(ctx context.Context, p *models.Preset) (*models.Preset, error)
	Get(ctx context.Context, name string) (*models.Preset, error)
	List(ctx context.Context) ([]models.Preset, error)
	Delete(ctx context.Context, name string) error
}

type SnapshotStore interface {
	Record(ctx context.Context, s *models.LadderSnapshot) (*models.LadderSnapshot, error)
	// Latest returns nil, nil when no snapshot exists.
	Latest(ctx context.Context) (*models.LadderSnapshot, error)
	History(ctx context.Context, limit int) ([]models.LadderSnapshot, error)
}

type Store interface {
	PresetStore
	SnapshotStore
	Ping(ctx context.Context) error
	Close()
}

type scannable interface {
	Scan(dest ...any) error
}
