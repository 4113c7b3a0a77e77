package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iwash/internal/cache"
	"github.com/sells-group/iwash/internal/classify"
	"github.com/sells-group/iwash/internal/resilience"
	"github.com/sells-group/iwash/internal/search"
	"github.com/sells-group/iwash/internal/store"
	"github.com/sells-group/iwash/pkg/places"
)

// appEnv holds the initialized store, searcher and metrics registry needed
// by the search, favorites and serve commands.
type appEnv struct {
	Store    store.Store // nil unless requested
	Searcher search.Searcher
	Registry *prometheus.Registry
	Cache    *cache.SearchCache // nil when no Redis address is configured

	rdb *redis.Client
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initClassifier builds the classifier from the built-in keyword tables or
// from classify.keywords_file when set.
func initClassifier() (*classify.Classifier, error) {
	if cfg.Classify.KeywordsFile == "" {
		return classify.Default(), nil
	}
	tables, err := classify.LoadTables(cfg.Classify.KeywordsFile)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("loaded keyword tables", zap.String("path", cfg.Classify.KeywordsFile))
	return classify.New(*tables), nil
}

// initPlaces builds the Places API client from config, with retries and a
// circuit breaker around it.
func initPlaces() places.Client {
	timeout := time.Duration(cfg.Places.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []places.Option{
		places.WithHTTPClient(&http.Client{Timeout: timeout}),
		places.WithRateLimit(cfg.Places.RateLimit),
	}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	client := places.NewClient(cfg.Places.Key, opts...)

	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = cfg.Places.RetryAttempts
	if cfg.Places.RetryBackoffMS > 0 {
		policy.InitialBackoff = time.Duration(cfg.Places.RetryBackoffMS) * time.Millisecond
	}

	var breaker *resilience.Breaker
	if cfg.Places.BreakerThreshold > 0 {
		breaker = resilience.NewBreaker(resilience.BreakerConfig{
			FailureThreshold: cfg.Places.BreakerThreshold,
			ResetTimeout:     time.Duration(cfg.Places.BreakerResetSecs) * time.Second,
			OnStateChange:    resilience.LogStateChange,
		})
	}
	return resilience.NewClient(client, policy, breaker)
}

// initEnv wires the places client, classifier, aggregator, optional Redis
// cache and, when withStore is set, the store. Callers should defer
// env.Close().
func initEnv(ctx context.Context, withStore bool) (*appEnv, error) {
	if err := cfg.Validate("search"); err != nil {
		return nil, err
	}

	classifier, err := initClassifier()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	env := &appEnv{Registry: reg}
	env.Searcher = search.NewAggregator(initPlaces(), classifier, cfg.Search,
		search.WithMetrics(search.NewMetrics(reg)),
	)

	if cfg.Cache.RedisAddr != "" {
		env.rdb = cache.NewClient(cfg.Cache)
		env.Cache = cache.New(env.Searcher, env.rdb, time.Duration(cfg.Cache.TTLSecs)*time.Second)
		if err := env.Cache.Ping(ctx); err != nil {
			zap.L().Warn("search cache unreachable, continuing uncached reads", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		env.Searcher = env.Cache
	}

	if withStore {
		st, err := initStore(ctx)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Store = st
	}

	return env, nil
}
