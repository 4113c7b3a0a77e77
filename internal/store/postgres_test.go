package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iwash/internal/model"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, now: func() time.Time { return fixedNow }}
	return s, mock
}

func favoriteJSON(t *testing.T, p model.ClassifiedPlace) []byte {
	t.Helper()
	data, err := json.Marshal(model.NewFavorite(p, fixedNow))
	require.NoError(t, err)
	return data
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS favorites`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFavorites(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"data"}).
		AddRow(favoriteJSON(t, samplePlace("p1"))).
		AddRow(favoriteJSON(t, samplePlace("p2")))
	mock.ExpectQuery(`SELECT data FROM favorites ORDER BY saved_at, id`).WillReturnRows(rows)

	favs, err := s.ListFavorites(context.Background())
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "Myčka p2", favs["p2"].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ToggleFavorite(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	p := samplePlace("p1")

	mock.ExpectExec(`WITH removed AS \(\s*DELETE FROM favorites WHERE id = \$1 RETURNING id\s*\)`).
		WithArgs("p1", favoriteJSON(t, p), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT data FROM favorites`).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(favoriteJSON(t, p)))

	favs, err := s.ToggleFavorite(context.Background(), p)
	require.NoError(t, err)
	require.Contains(t, favs, "p1")
	assert.Equal(t, fixedNow, favs["p1"].SavedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ToggleFavorite_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`WITH removed AS`).
		WithArgs("p1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := s.ToggleFavorite(context.Background(), samplePlace("p1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle favorite p1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IsFavorite(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM favorites WHERE id = \$1\)`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.IsFavorite(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RemoveFavorite_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM favorites WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.RemoveFavorite(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSettings_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
		WithArgs(SettingsKey).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSettings_Merged(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
		WithArgs(SettingsKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"autoReload":true,"preferredNav":"google"}`)))

	got, err := s.GetSettings(context.Background())
	require.NoError(t, err)

	want := model.DefaultSettings()
	want.AutoReload = true
	want.PreferredNav = model.NavGoogle
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSettings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	st := model.DefaultSettings()
	st.DefaultRadiusM = 2500
	data, err := json.Marshal(st)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO settings \(key, value, updated_at\)`).
		WithArgs(SettingsKey, data, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSettings(context.Background(), st))
	assert.NoError(t, mock.ExpectationsWereMet())
}
