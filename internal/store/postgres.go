package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/iwash/internal/db"
	"github.com/sells-group/iwash/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS favorites (
	id       TEXT PRIMARY KEY,
	data     JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_favorites_saved_at ON favorites(saved_at);
`

// toggleFavoriteSQL deletes the row when present and inserts it otherwise
// in one statement.
const toggleFavoriteSQL = `WITH removed AS (
	DELETE FROM favorites WHERE id = $1 RETURNING id
)
INSERT INTO favorites (id, data, saved_at)
SELECT $1, $2, $3 WHERE NOT EXISTS (SELECT 1 FROM removed)`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListFavorites(ctx context.Context) (map[string]model.Favorite, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM favorites ORDER BY saved_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list favorites")
	}
	defer rows.Close()

	favs := make(map[string]model.Favorite)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan favorite")
		}
		f, err := unmarshalFavorite(data)
		if err != nil {
			return nil, err
		}
		favs[f.ID] = f
	}
	return favs, eris.Wrap(rows.Err(), "postgres: iterate favorites")
}

func (s *PostgresStore) IsFavorite(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM favorites WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: is favorite %s", id)
	}
	return exists, nil
}

func (s *PostgresStore) ToggleFavorite(ctx context.Context, p model.ClassifiedPlace) (map[string]model.Favorite, error) {
	if p.ID == "" {
		return nil, eris.New("postgres: toggle favorite: empty id")
	}

	f := model.NewFavorite(p, s.now())
	data, err := marshalFavorite(f)
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, toggleFavoriteSQL, f.ID, data, f.SavedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: toggle favorite %s", p.ID)
	}
	return s.ListFavorites(ctx)
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: remove favorite %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "favorite %s", id)
	}
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, SettingsKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, eris.Wrap(err, "postgres: get settings")
	}
	return mergeSettings(value), nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, st model.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal settings")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		SettingsKey, data, s.now().UTC(),
	)
	return eris.Wrap(err, "postgres: save settings")
}
