// Package places is a client for the Google Places Nearby Search API.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	// DefaultType is the place category requested when none is set.
	DefaultType = "car_wash"
)

// Response statuses returned by the API.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// ErrNoAPIKey is returned before any network call when the client has no key.
var ErrNoAPIKey = eris.New("places: api key not configured")

// HTTPError is returned when the API answers with a non-200 HTTP status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("places: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client performs Places Nearby Search requests.
type Client interface {
	NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error)
}

// LatLng is a WGS84 coordinate as the API encodes it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbyRequest describes one Nearby Search page. When PageToken is set the
// other fields are ignored and only the token is sent.
type NearbyRequest struct {
	Location  LatLng
	RadiusM   int
	Type      string
	PageToken string
}

// NearbyResponse is one page of Nearby Search results.
type NearbyResponse struct {
	Status        string   `json:"status"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	Results       []Result `json:"results"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}

// Result is a single place in a Nearby Search page.
type Result struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Vicinity         string        `json:"vicinity,omitempty"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	Types            []string      `json:"types,omitempty"`
	Geometry         Geometry      `json:"geometry"`
	Rating           *float64      `json:"rating,omitempty"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
}

// Geometry carries the place location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// OpeningHours carries the open-now flag when the API knows it.
type OpeningHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables
// the limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := max(int(rps), 1)
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	params := url.Values{"key": {c.apiKey}}
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	} else {
		typ := req.Type
		if typ == "" {
			typ = DefaultType
		}
		params.Set("location", strconv.FormatFloat(req.Location.Lat, 'f', -1, 64)+","+strconv.FormatFloat(req.Location.Lng, 'f', -1, 64))
		params.Set("radius", strconv.Itoa(req.RadiusM))
		params.Set("type", typ)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/nearbysearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result NearbyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return &result, nil
}
