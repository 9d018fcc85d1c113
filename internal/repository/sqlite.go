package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kjannette/trahn-ladder/internal/models"
)

// SQLiteStore keeps presets and snapshots in a local SQLite file. Timestamps
// are stored as unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (r *SQLiteStore) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }
func (r *SQLiteStore) Close()                         { r.db.Close() }

// --- presets ---

func (r *SQLiteStore) Save(ctx context.Context, p *models.Preset) (*models.Preset, error) {
	if !ValidPresetName(p.Name) {
		return nil, ErrInvalidPresetName
	}
	params, err := json.Marshal(p.Params)
	if err != nil {
		return nil, errors.Wrap(err, "marshal preset params")
	}
	now := r.now().UnixNano()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ladder_presets (name, params_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE
		 SET params_json = excluded.params_json, updated_at = excluded.updated_at`,
		p.Name, string(params), now, now,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "save preset %s", p.Name)
	}
	return r.Get(ctx, p.Name)
}

func (r *SQLiteStore) Get(ctx context.Context, name string) (*models.Preset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, params_json, created_at, updated_at FROM ladder_presets WHERE name = ?`,
		name,
	)
	p, err := scanSQLitePreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPresetNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get preset %s", name)
	}
	return p, nil
}

func (r *SQLiteStore) List(ctx context.Context) ([]models.Preset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, params_json, created_at, updated_at FROM ladder_presets ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list presets")
	}
	defer rows.Close()

	var out []models.Preset
	for rows.Next() {
		p, err := scanSQLitePreset(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan preset")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ladder_presets WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "delete preset %s", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// --- snapshots ---

func (r *SQLiteStore) Record(ctx context.Context, s *models.LadderSnapshot) (*models.LadderSnapshot, error) {
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

	out := *s
	out.ID = uuid.NewString()
	out.LevelsJSON = levels
	out.CreatedAt = r.now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ladder_snapshots
		 (id, preset_name, price, params_json, levels_json, stats_json, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		out.ID, out.PresetName, out.Price, string(params), string(levels), string(stats), out.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "record snapshot")
	}
	out.CreatedAt = time.Unix(0, out.CreatedAt.UnixNano())
	return &out, nil
}

func (r *SQLiteStore) Latest(ctx context.Context) (*models.LadderSnapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, preset_name, price, params_json, levels_json, stats_json, created_at
		 FROM ladder_snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	)
	s, err := scanSQLiteSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "latest snapshot")
	}
	return s, nil
}

func (r *SQLiteStore) History(ctx context.Context, limit int) ([]models.LadderSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, preset_name, price, params_json, levels_json, stats_json, created_at
		 FROM ladder_snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot history")
	}
	defer rows.Close()

	var out []models.LadderSnapshot
	for rows.Next() {
		s, err := scanSQLiteSnapshot(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// --- scan helpers ---

func scanSQLitePreset(row scannable) (*models.Preset, error) {
	var (
		p                models.Preset
		params           string
		created, updated int64
	)
	if err := row.Scan(&p.Name, &params, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &p.Params); err != nil {
		return nil, errors.Wrap(err, "decode preset params")
	}
	p.CreatedAt = time.Unix(0, created)
	p.UpdatedAt = time.Unix(0, updated)
	return &p, nil
}

func scanSQLiteSnapshot(row scannable) (*models.LadderSnapshot, error) {
	var (
		s                     models.LadderSnapshot
		params, levels, stats string
		created               int64
	)
	if err := row.Scan(&s.ID, &s.PresetName, &s.Price, &params, &levels, &stats, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &s.Params); err != nil {
		return nil, errors.Wrap(err, "decode snapshot params")
	}
	if err := json.Unmarshal([]byte(stats), &s.Stats); err != nil {
		return nil, errors.Wrap(err, "decode snapshot stats")
	}
	s.LevelsJSON = json.RawMessage(levels)
	s.CreatedAt = time.Unix(0, created)
	return &s, nil
}
