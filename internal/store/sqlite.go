package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/iwash/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS favorites (
	id       TEXT PRIMARY KEY,
	data     TEXT NOT NULL,
	saved_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_favorites_saved_at ON favorites(saved_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListFavorites(ctx context.Context) (map[string]model.Favorite, error) {
	return listFavorites(ctx, s.db)
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listFavorites(ctx context.Context, q sqlQuerier) (map[string]model.Favorite, error) {
	rows, err := q.QueryContext(ctx, `SELECT data FROM favorites ORDER BY saved_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list favorites")
	}
	defer rows.Close() //nolint:errcheck

	favs := make(map[string]model.Favorite)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan favorite")
		}
		f, err := unmarshalFavorite([]byte(data))
		if err != nil {
			return nil, err
		}
		favs[f.ID] = f
	}
	return favs, eris.Wrap(rows.Err(), "sqlite: iterate favorites")
}

func (s *SQLiteStore) IsFavorite(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: is favorite %s", id)
	}
	return n > 0, nil
}

// ToggleFavorite removes p from favorites when present and inserts a
// snapshot of it otherwise, then returns the resulting favorites.
func (s *SQLiteStore) ToggleFavorite(ctx context.Context, p model.ClassifiedPlace) (map[string]model.Favorite, error) {
	if p.ID == "" {
		return nil, eris.New("sqlite: toggle favorite: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin toggle")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, p.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: delete favorite %s", p.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "rows affected")
	}

	if n == 0 {
		f := model.NewFavorite(p, s.now())
		data, err := marshalFavorite(f)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO favorites (id, data, saved_at) VALUES (?, ?, ?)`,
			f.ID, string(data), f.SavedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert favorite %s", p.ID)
		}
	}

	favs, err := listFavorites(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit toggle")
	}
	return favs, nil
}

func (s *SQLiteStore) RemoveFavorite(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: remove favorite %s", id)
	}
	return checkRowsAffected(res, "favorite", id)
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, eris.Wrap(err, "sqlite: get settings")
	}
	return mergeSettings([]byte(value)), nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, st model.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal settings")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		SettingsKey, string(data), s.now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save settings")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
