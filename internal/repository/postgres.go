package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/kjannette/trahn-ladder/internal/models"
)

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (r *PGStore) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }
func (r *PGStore) Close()                         { r.pool.Close() }

// --- presets ---

func (r *PGStore) Save(ctx context.Context, p *models.Preset) (*models.Preset, error) {
	if !ValidPresetName(p.Name) {
		return nil, ErrInvalidPresetName
	}
	params, err := json.Marshal(p.Params)
	if err != nil {
		return nil, errors.Wrap(err, "marshal preset params")
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO ladder_presets (name, params_json, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET params_json = EXCLUDED.params_json, updated_at = NOW()
		 RETURNING name, params_json, created_at, updated_at`,
		p.Name, params,
	)
	saved, err := scanPGPreset(row)
	if err != nil {
		return nil, errors.Wrapf(err, "save preset %s", p.Name)
	}
	return saved, nil
}

func (r *PGStore) Get(ctx context.Context, name string) (*models.Preset, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT name, params_json, created_at, updated_at FROM ladder_presets WHERE name = $1`,
		name,
	)
	p, err := scanPGPreset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPresetNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get preset %s", name)
	}
	return p, nil
}

func (r *PGStore) List(ctx context.Context) ([]models.Preset, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, params_json, created_at, updated_at FROM ladder_presets ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list presets")
	}
	defer rows.Close()

	var out []models.Preset
	for rows.Next() {
		p, err := scanPGPreset(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan preset")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGStore) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ladder_presets WHERE name = $1`, name)
	if err != nil {
		return errors.Wrapf(err, "delete preset %s", name)
	}
	if tag.RowsAffected() == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// --- snapshots ---

func (r *PGStore) Record(ctx context.Context, s *models.LadderSnapshot) (*models.LadderSnapshot, error) {
	params, err := json.Marshal(s.Params)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot params")
	}
	stats, err := json.Marshal(s.Stats)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot stats")
	}
	levels := s.LevelsJSON
	if levels == nil {
		levels = json.RawMessage("[]")
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO ladder_snapshots
		 (id, preset_name, price, params_json, levels_json, stats_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())
		 RETURNING id, preset_name, price, params_json, levels_json, stats_json, created_at`,
		uuid.NewString(), s.PresetName, s.Price, params, []byte(levels), stats,
	)
	out, err := scanPGSnapshot(row)
	if err != nil {
		return nil, errors.Wrap(err, "record snapshot")
	}
	return out, nil
}

func (r *PGStore) Latest(ctx context.Context) (*models.LadderSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, preset_name, price, params_json, levels_json, stats_json, created_at
		 FROM ladder_snapshots ORDER BY created_at DESC, seq DESC LIMIT 1`,
	)
	s, err := scanPGSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "latest snapshot")
	}
	return s, nil
}

func (r *PGStore) History(ctx context.Context, limit int) ([]models.LadderSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, preset_name, price, params_json, levels_json, stats_json, created_at
		 FROM ladder_snapshots ORDER BY created_at DESC, seq DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot history")
	}
	defer rows.Close()

	var out []models.LadderSnapshot
	for rows.Next() {
		s, err := scanPGSnapshot(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// --- scan helpers ---

func scanPGPreset(row scannable) (*models.Preset, error) {
	var (
		p      models.Preset
		params []byte
	)
	if err := row.Scan(&p.Name, &params, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &p.Params); err != nil {
		return nil, errors.Wrap(err, "decode preset params")
	}
	return &p, nil
}

func scanPGSnapshot(row scannable) (*models.LadderSnapshot, error) {
	var (
		s             models.LadderSnapshot
		params, stats []byte
		levels        []byte
		created       time.Time
	)
	if err := row.Scan(&s.ID, &s.PresetName, &s.Price, &params, &levels, &stats, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &s.Params); err != nil {
		return nil, errors.Wrap(err, "decode snapshot params")
	}
	if err := json.Unmarshal(stats, &s.Stats); err != nil {
		return nil, errors.Wrap(err, "decode snapshot stats")
	}
	s.LevelsJSON = json.RawMessage(levels)
	s.CreatedAt = created
	return &s, nil
}
