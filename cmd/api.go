package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/internal/geo"
	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/internal/search"
	"github.com/sells-group/iwash/internal/session"
	"github.com/sells-group/iwash/internal/store"
)

// statusClientClosedRequest is returned when a search is cancelled before
// it completes.
const statusClientClosedRequest = 499

// pinger reports the health of an optional dependency.
type pinger interface {
	Ping(ctx context.Context) error
}

// api holds the dependencies of the HTTP handlers. Store and session may be
// nil; the routes that need them then answer 503.
type api struct {
	searcher search.Searcher
	store    store.Store
	session  *session.Session
	search   config.SearchConfig
	gatherer prometheus.Gatherer
	pinger   pinger
}

// buildRouter mounts the API routes behind CORS, request ids and panic
// recovery.
func buildRouter(a *api, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", a.handleSearch)

		r.Route("/session", func(r chi.Router) {
			r.Use(a.requireSession)
			r.Post("/search", a.handleSessionSearch)
			r.Get("/places", a.handleSessionPlaces)
			r.Put("/selection", a.handleSessionSelection)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(a.requireStore)
			r.Get("/", a.handleListFavorites)
			r.Post("/toggle", a.handleToggleFavorite)
			r.Delete("/{id}", a.handleRemoveFavorite)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(a.requireStore)
			r.Get("/", a.handleGetSettings)
			r.Put("/", a.handlePutSettings)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (a *api) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.store == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "store not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.session == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "session not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if a.pinger != nil {
		if err := a.pinger.Ping(r.Context()); err != nil {
			body["cache"] = "unavailable"
		} else {
			body["cache"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// handleSearch runs a one-off search that does not touch the session.
func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	origin, err := parseOrigin(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius := 0
	if s := q.Get("radius"); s != "" {
		if radius, err = strconv.Atoi(s); err != nil {
			writeJSONError(w, http.StatusBadRequest, "radius must be an integer")
			return
		}
	}
	mode, err := search.ParseFilterMode(q.Get("filter"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := q.Get("format")
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatGeoJSON {
		writeJSONError(w, http.StatusBadRequest, "format must be json or geojson")
		return
	}

	res, err := a.searcher.SearchNearby(r.Context(), origin, search.NormalizeRadius(radius, a.search))
	if err != nil {
		writeSearchError(w, err)
		return
	}

	out := *res
	if mode == search.FilterFavorites {
		if a.store == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "store not configured")
			return
		}
		favs, err := a.store.ListFavorites(r.Context())
		if err != nil {
			writeSearchError(w, err)
			return
		}
		out.Places = search.FavoritesAt(favs, &origin)
	} else {
		out.Places = search.FilterByType(res.Places, mode)
	}

	if format == formatGeoJSON {
		writeGeoJSON(w, out.Places)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type sessionSearchRequest struct {
	Device    *model.Coordinate `json:"device"`
	MapCenter *model.Coordinate `json:"map_center"`
	RadiusM   int               `json:"radius_m"`
}

// handleSessionSearch searches from the device location or the map center
// according to the saved settings and makes the result current.
func (a *api) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	var req sessionSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := model.DefaultSettings()
	if a.store != nil {
		s, err := a.store.GetSettings(r.Context())
		if err != nil {
			writeSearchError(w, err)
			return
		}
		settings = s
	}

	origin, ok := settings.SearchOrigin(req.Device, req.MapCenter)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "device or map_center is required")
		return
	}
	radius := req.RadiusM
	if radius == 0 {
		radius = settings.DefaultRadiusM
	}

	if _, err := a.session.Search(r.Context(), origin, radius); err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.session.Snapshot())
}

func (a *api) handleSessionPlaces(w http.ResponseWriter, r *http.Request) {
	if f := r.URL.Query().Get("filter"); f != "" {
		mode, err := search.ParseFilterMode(f)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.session.SetFilter(mode)
	}

	visible, err := a.session.Visible(r.Context())
	if err != nil {
		writeSearchError(w, err)
		return
	}

	snap := a.session.Snapshot()
	snap.Places = visible
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) handleSessionSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.session.Select(r.Context(), req.ID); err != nil {
		if errors.Is(err, session.ErrUnknownPlace) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeSearchError(w, err)
		return
	}

	index := -1
	if req.ID != "" {
		i, err := a.session.IndexOf(r.Context(), req.ID)
		if err != nil {
			writeSearchError(w, err)
			return
		}
		index = i
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": req.ID, "index": index})
}

func (a *api) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var origin *model.Coordinate
	if q.Get("lat") != "" || q.Get("lng") != "" {
		o, err := parseOrigin(q.Get("lat"), q.Get("lng"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		origin = &o
	}

	favs, err := a.store.ListFavorites(r.Context())
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": search.FavoritesAt(favs, origin)})
}

func (a *api) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if a.session == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session not configured")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "id is required")
		return
	}

	favs, err := a.session.ToggleFavorite(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, session.ErrUnknownPlace) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeSearchError(w, err)
		return
	}

	_, saved := favs[req.ID]
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID, "favorite": saved, "favorites": favs})
}

func (a *api) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.RemoveFavorite(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "favorite not found")
			return
		}
		writeSearchError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := a.store.GetSettings(r.Context())
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handlePutSettings merges the body over the stored settings, so a client
// may send only the fields it changes.
func (a *api) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	s, err := a.store.GetSettings(r.Context())
	if err != nil {
		writeSearchError(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.store.SaveSettings(r.Context(), s); err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func parseOrigin(lat, lng string) (model.Coordinate, error) {
	if lat == "" || lng == "" {
		return model.Coordinate{}, eris.New("lat and lng are required")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || la < -90 || la > 90 {
		return model.Coordinate{}, eris.New("lat must be a number between -90 and 90")
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil || lo < -180 || lo > 180 {
		return model.Coordinate{}, eris.New("lng must be a number between -180 and 180")
	}
	return model.Coordinate{Latitude: la, Longitude: lo}, nil
}

// errorStatus maps a search or store error onto an HTTP status.
func errorStatus(err error) int {
	switch search.Outcome(err) {
	case "cancelled":
		return statusClientClosedRequest
	case "remote_error":
		return http.StatusBadGateway
	case "network_error":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeSearchError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("outcome", search.Outcome(err)), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{
		"error":   err.Error(),
		"outcome": search.Outcome(err),
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeGeoJSON(w http.ResponseWriter, places []model.ClassifiedPlace) {
	data, err := geo.FeatureCollection(places)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
