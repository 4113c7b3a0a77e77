// Package search runs paginated nearby searches, merges and classifies the
// results and orders them by distance from the search origin.
package search

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/iwash/internal/classify"
	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/internal/geo"
	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/pkg/places"
)

// Searcher returns classified places around an origin.
type Searcher interface {
	SearchNearby(ctx context.Context, origin model.Coordinate, radiusM int) (*Result, error)
}

// Result is the merged outcome of one nearby search.
type Result struct {
	ID         string                  `json:"id"`
	Origin     model.Coordinate        `json:"origin"`
	RadiusM    int                     `json:"radius_m"`
	Places     []model.ClassifiedPlace `json:"places"`
	Pages      int                     `json:"pages"`
	Excluded   int                     `json:"excluded"`
	Duplicates int                     `json:"duplicates"`
	Skipped    int                     `json:"skipped"`
	FetchedAt  time.Time               `json:"fetched_at"`
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Observer is notified of every state transition.
type Observer func(from, to State)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWaitFunc replaces the token-activation wait.
func WithWaitFunc(w WaitFunc) Option {
	return func(a *Aggregator) {
		a.wait = w
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithRateLimit caps page fetches per second across all searches.
func WithRateLimit(rps float64) Option {
	return func(a *Aggregator) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithObserver registers a state transition callback.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) {
		a.observer = o
	}
}

// Aggregator implements Searcher over a places client. Every call keeps its
// own state, so one Aggregator may serve concurrent searches.
type Aggregator struct {
	client     places.Client
	classifier *classify.Classifier
	cfg        config.SearchConfig
	wait       WaitFunc
	metrics    *Metrics
	limiter    *rate.Limiter
	observer   Observer
	now        func() time.Time
}

// NewAggregator creates an Aggregator. Zero limits in cfg fall back to 60
// results, 5 pages and a 2 s token delay.
func NewAggregator(client places.Client, classifier *classify.Classifier, cfg config.SearchConfig, opts ...Option) *Aggregator {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 60
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if cfg.TokenDelayMS <= 0 {
		cfg.TokenDelayMS = 2000
	}
	if cfg.Category == "" {
		cfg.Category = places.DefaultType
	}
	if classifier == nil {
		classifier = classify.Default()
	}

	a := &Aggregator{
		client:     client,
		classifier: classifier,
		cfg:        cfg,
		wait:       sleep,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		now:        time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run is the per-call state of one search.
type run struct {
	state  State
	token  string
	seen   map[string]struct{}
	result Result
	log    *zap.Logger
}

// SearchNearby fetches up to MaxPages pages of results around origin,
// waiting the token delay before each follow-up page. It stops when no
// continuation token is returned or MaxResults places have been collected.
// A failure on any page fails the whole call.
func (a *Aggregator) SearchNearby(ctx context.Context, origin model.Coordinate, radiusM int) (*Result, error) {
	start := a.now()
	if radiusM <= 0 {
		radiusM = a.cfg.DefaultRadiusM
	}

	id := uuid.NewString()
	r := &run{
		state: StateIdle,
		seen:  make(map[string]struct{}),
		result: Result{
			ID:      id,
			Origin:  origin,
			RadiusM: radiusM,
			Places:  []model.ClassifiedPlace{},
		},
		log: zap.L().With(zap.String("search_id", id)),
	}

	err := a.drive(ctx, r)
	a.metrics.observe(err, len(r.result.Places), a.now().Sub(start))
	if err != nil {
		r.log.Warn("nearby search failed",
			zap.Stringer("state", r.state),
			zap.Int("pages", r.result.Pages),
			zap.Error(err),
		)
		return nil, err
	}

	slices.SortStableFunc(r.result.Places, func(x, y model.ClassifiedPlace) int {
		return cmp.Compare(x.DistanceM, y.DistanceM)
	})
	r.result.FetchedAt = a.now().UTC()

	r.log.Info("nearby search complete",
		zap.Float64("lat", origin.Latitude),
		zap.Float64("lng", origin.Longitude),
		zap.Int("radius_m", radiusM),
		zap.Int("pages", r.result.Pages),
		zap.Int("results", len(r.result.Places)),
		zap.Int("excluded", r.result.Excluded),
		zap.Int("duplicates", r.result.Duplicates),
	)

	return &r.result, nil
}

func (a *Aggregator) transition(r *run, to State) {
	r.log.Debug("search state", zap.Stringer("from", r.state), zap.Stringer("to", to))
	if a.observer != nil {
		a.observer(r.state, to)
	}
	r.state = to
}

// drive runs the state machine until a terminal state.
func (a *Aggregator) drive(ctx context.Context, r *run) error {
	a.transition(r, StateFetchingPage)

	for {
		switch r.state {
		case StateFetchingPage:
			if ctx.Err() != nil {
				a.transition(r, StateCancelled)
				return cancelled(ctx)
			}
			if err := a.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					a.transition(r, StateCancelled)
					return cancelled(ctx)
				}
				a.transition(r, StateFailed)
				return eris.Wrap(err, "search: rate limit wait")
			}

			resp, err := a.fetch(ctx, r)
			if err != nil {
				if errors.Is(err, ErrCancelled) {
					a.transition(r, StateCancelled)
				} else {
					a.transition(r, StateFailed)
				}
				return err
			}

			a.absorb(r, resp)

			r.token = resp.NextPageToken
			if r.token != "" && len(r.result.Places) < a.cfg.MaxResults && r.result.Pages < a.cfg.MaxPages {
				a.transition(r, StateAwaitingTokenDelay)
			} else {
				a.transition(r, StateDone)
			}

		case StateAwaitingTokenDelay:
			if ctx.Err() != nil {
				a.transition(r, StateCancelled)
				return cancelled(ctx)
			}
			delay := time.Duration(a.cfg.TokenDelayMS) * time.Millisecond
			if err := a.wait(ctx, delay); err != nil {
				a.transition(r, StateCancelled)
				if ctx.Err() != nil {
					return cancelled(ctx)
				}
				return &CancelledError{Cause: err}
			}
			a.transition(r, StateFetchingPage)

		case StateDone:
			return nil

		default:
			return eris.Errorf("search: unexpected state %s", r.state)
		}
	}
}

func (a *Aggregator) fetch(ctx context.Context, r *run) (*places.NearbyResponse, error) {
	req := places.NearbyRequest{PageToken: r.token}
	if r.token == "" {
		req.Location = places.LatLng{Lat: r.result.Origin.Latitude, Lng: r.result.Origin.Longitude}
		req.RadiusM = r.result.RadiusM
		req.Type = a.cfg.Category
	}

	resp, err := a.client.NearbySearch(ctx, req)
	if err != nil {
		return nil, classifyFetchErr(ctx, err)
	}
	if resp == nil {
		return nil, &NetworkError{Err: eris.New("search: empty response")}
	}

	switch resp.Status {
	case places.StatusOK, places.StatusZeroResults:
	default:
		return nil, &RemoteError{Status: resp.Status, Message: resp.ErrorMessage}
	}

	r.result.Pages++
	a.metrics.pageFetched()
	return resp, nil
}

// absorb maps, filters, classifies and dedups one page into the run.
func (a *Aggregator) absorb(r *run, resp *places.NearbyResponse) {
	var kept int
	for _, raw := range resp.Results {
		if raw.PlaceID == "" {
			r.result.Skipped++
			continue
		}

		p := toPlace(raw)
		d := a.classifier.Classify(p.Name, p.Types, p.Address)
		if d.Excluded {
			r.result.Excluded++
			continue
		}

		if _, dup := r.seen[p.ID]; dup {
			r.result.Duplicates++
			continue
		}
		r.seen[p.ID] = struct{}{}

		r.result.Places = append(r.result.Places, model.ClassifiedPlace{
			Place:        p,
			InferredType: d.Type,
			DistanceM:    geo.RoundedDistance(r.result.Origin, p.Location),
		})
		kept++
	}

	r.log.Debug("page absorbed",
		zap.Int("page", r.result.Pages),
		zap.String("status", resp.Status),
		zap.Int("raw", len(resp.Results)),
		zap.Int("kept", kept),
		zap.Bool("has_next", resp.NextPageToken != ""),
	)
}

func toPlace(raw places.Result) model.Place {
	addr := raw.Vicinity
	if addr == "" {
		addr = raw.FormattedAddress
	}

	p := model.Place{
		ID:               raw.PlaceID,
		Name:             raw.Name,
		Address:          addr,
		Types:            raw.Types,
		Location:         model.Coordinate{Latitude: raw.Geometry.Location.Lat, Longitude: raw.Geometry.Location.Lng},
		Rating:           raw.Rating,
		UserRatingsTotal: raw.UserRatingsTotal,
	}
	if p.Types == nil {
		p.Types = []string{}
	}
	if raw.OpeningHours != nil {
		p.OpenNow = raw.OpeningHours.OpenNow
	}
	return p
}
