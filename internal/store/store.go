// Package store persists favorites and user settings.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/internal/model"
)

// SettingsKey is the row key the settings record is stored under.
const SettingsKey = "iwash_settings_v1"

// ErrNotFound is returned when removing a favorite that does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for favorites and settings.
type Store interface {
	// Favorites
	ListFavorites(ctx context.Context) (map[string]model.Favorite, error)
	IsFavorite(ctx context.Context, id string) (bool, error)
	ToggleFavorite(ctx context.Context, p model.ClassifiedPlace) (map[string]model.Favorite, error)
	RemoveFavorite(ctx context.Context, id string) error

	// Settings
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// mergeSettings overlays a stored settings record on the defaults. Fields
// missing from the record keep their default; an unreadable record yields
// the defaults.
func mergeSettings(raw []byte) model.Settings {
	s := model.DefaultSettings()
	if len(raw) == 0 {
		return s
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		zap.L().Warn("stored settings unreadable, using defaults", zap.Error(err))
		return model.DefaultSettings()
	}
	return s
}

func marshalFavorite(f model.Favorite) ([]byte, error) {
	data, err := json.Marshal(f)
	return data, eris.Wrap(err, "store: marshal favorite")
}

func unmarshalFavorite(data []byte) (model.Favorite, error) {
	var f model.Favorite
	err := json.Unmarshal(data, &f)
	return f, eris.Wrap(err, "store: unmarshal favorite")
}
