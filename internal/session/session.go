// Package session tracks the interactive search state a client works
// against: the current result list, the active filter, the selected place
// and a debounced auto reload.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/internal/search"
	"github.com/sells-group/iwash/internal/store"
)

// ErrSuperseded is the cancellation cause of a search replaced by a newer one.
var ErrSuperseded = eris.New("session: superseded by a newer search")

// ErrUnknownPlace is returned when an id is not in the visible list.
var ErrUnknownPlace = eris.New("session: unknown place")

// Snapshot is a copy of the session state.
type Snapshot struct {
	Places   []model.ClassifiedPlace `json:"places"`
	Origin   *model.Coordinate       `json:"origin,omitempty"`
	RadiusM  int                     `json:"radius_m"`
	Filter   search.FilterMode       `json:"filter"`
	Selected string                  `json:"selected,omitempty"`
	Loading  bool                    `json:"loading"`
	Error    string                  `json:"error,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithDebounce overrides the auto reload debounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.debounce = d
	}
}

// Session serializes searches so only the newest one can update the list.
type Session struct {
	searcher search.Searcher
	store    store.Store
	cfg      config.SearchConfig
	debounce time.Duration

	base     context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelCauseFunc
	places   []model.ClassifiedPlace
	origin   *model.Coordinate
	radiusM  int
	filter   search.FilterMode
	selected string
	lastErr  error
	reload   *time.Timer
}

// New creates a Session.
func New(searcher search.Searcher, st store.Store, cfg config.SearchConfig, opts ...Option) *Session {
	debounce := time.Duration(cfg.AutoReloadDebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 600 * time.Millisecond
	}
	base, stop := context.WithCancel(context.Background())

	s := &Session{
		searcher: searcher,
		store:    st,
		cfg:      cfg,
		debounce: debounce,
		base:     base,
		stop:     stop,
		places:   []model.ClassifiedPlace{},
		filter:   search.FilterAll,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search runs a nearby search and makes it the current one. Any search
// still in flight is cancelled with ErrSuperseded and its outcome dropped.
// On success the list is replaced and the selection cleared; on failure the
// previous list is kept and the error recorded.
func (s *Session) Search(ctx context.Context, origin model.Coordinate, radiusM int) (*search.Result, error) {
	radiusM = search.NormalizeRadius(radiusM, s.cfg)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancelCause(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.searcher.SearchNearby(ctx, origin, radiusM)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		zap.L().Debug("discarding superseded search", zap.Uint64("generation", gen))
		if err == nil {
			err = &search.CancelledError{Cause: ErrSuperseded}
		}
		return nil, err
	}
	cancel(nil)
	s.cancel = nil

	if err != nil {
		s.lastErr = err
		return nil, err
	}

	o := origin
	s.origin = &o
	s.radiusM = radiusM
	s.places = res.Places
	s.selected = ""
	s.lastErr = nil
	return res, nil
}

// ScheduleReload runs Search after the debounce elapses, restarting the
// countdown on every call. Reload errors are logged.
func (s *Session) ScheduleReload(origin model.Coordinate, radiusM int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base.Err() != nil {
		return
	}
	if s.reload != nil {
		s.reload.Stop()
	}
	s.reload = time.AfterFunc(s.debounce, func() {
		if _, err := s.Search(s.base, origin, radiusM); err != nil && !errors.Is(err, search.ErrCancelled) {
			zap.L().Warn("auto reload failed", zap.Error(err))
		}
	})
}

// SetFilter changes the active filter mode.
func (s *Session) SetFilter(mode search.FilterMode) {
	s.mu.Lock()
	s.filter = mode
	s.mu.Unlock()
}

// Visible returns the list the active filter selects. FAVORITES reads the
// store and measures distances from the last search origin.
func (s *Session) Visible(ctx context.Context) ([]model.ClassifiedPlace, error) {
	s.mu.Lock()
	mode := s.filter
	places := s.places
	origin := s.origin
	s.mu.Unlock()

	if mode != search.FilterFavorites {
		return search.FilterByType(places, mode), nil
	}
	if s.store == nil {
		return []model.ClassifiedPlace{}, nil
	}
	favs, err := s.store.ListFavorites(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: list favorites")
	}
	return search.FavoritesAt(favs, origin), nil
}

// IndexOf returns the position of id in the visible list, or -1.
func (s *Session) IndexOf(ctx context.Context, id string) (int, error) {
	visible, err := s.Visible(ctx)
	if err != nil {
		return -1, err
	}
	return slices.IndexFunc(visible, func(p model.ClassifiedPlace) bool { return p.ID == id }), nil
}

// Select marks id as the selected place. An empty id clears the selection.
func (s *Session) Select(ctx context.Context, id string) error {
	if id != "" {
		i, err := s.IndexOf(ctx, id)
		if err != nil {
			return err
		}
		if i < 0 {
			return eris.Wrapf(ErrUnknownPlace, "select %s", id)
		}
	}
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return nil
}

// Selected returns the selected place id, empty when none.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ToggleFavorite flips the favorite state of a place from the current
// results or the saved favorites.
func (s *Session) ToggleFavorite(ctx context.Context, id string) (map[string]model.Favorite, error) {
	if s.store == nil {
		return nil, eris.New("session: no store configured")
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.places, func(p model.ClassifiedPlace) bool { return p.ID == id })
	var (
		p     model.ClassifiedPlace
		found = i >= 0
	)
	if found {
		p = s.places[i]
	}
	s.mu.Unlock()

	if !found {
		favs, err := s.store.ListFavorites(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "session: list favorites")
		}
		f, ok := favs[id]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownPlace, "toggle %s", id)
		}
		d := 0
		if f.DistanceM != nil {
			d = *f.DistanceM
		}
		p = f.Place(d)
	}
	return s.store.ToggleFavorite(ctx, p)
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Places:   slices.Clone(s.places),
		RadiusM:  s.radiusM,
		Filter:   s.filter,
		Selected: s.selected,
		Loading:  s.cancel != nil,
	}
	if s.origin != nil {
		o := *s.origin
		snap.Origin = &o
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Err returns the error of the last search, nil when it succeeded.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops any pending reload and cancels the in-flight search.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reload != nil {
		s.reload.Stop()
	}
	if s.cancel != nil {
		s.cancel(context.Canceled)
	}
	s.stop()
}
