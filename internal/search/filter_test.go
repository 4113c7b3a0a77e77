package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iwash/internal/model"
)

func classified(id string, typ model.ServiceType, d int) model.ClassifiedPlace {
	return model.ClassifiedPlace{Place: model.Place{ID: id, Name: id}, InferredType: typ, DistanceM: d}
}

func TestParseFilterMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    FilterMode
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"contact", FilterContact, false},
		{" NONCONTACT ", FilterNonContact, false},
		{"FullService", FilterFullService, false},
		{"favorites", FilterFavorites, false},
		{"cheap", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFilterMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterByType(t *testing.T) {
	t.Parallel()

	list := []model.ClassifiedPlace{
		classified("a", model.ServiceContact, 100),
		classified("b", model.ServiceNonContact, 200),
		classified("c", model.ServiceContact, 300),
		classified("d", model.ServiceUnknown, 400),
		classified("e", model.ServiceFullService, 500),
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(FilterByType(list, FilterAll)))
	assert.Equal(t, []string{"a", "c"}, ids(FilterByType(list, FilterContact)))
	assert.Equal(t, []string{"b"}, ids(FilterByType(list, FilterNonContact)))
	assert.Equal(t, []string{"e"}, ids(FilterByType(list, FilterFullService)))
	assert.Empty(t, FilterByType(nil, FilterContact))
}

func TestFavoritesAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	far := model.NewFavorite(model.ClassifiedPlace{
		Place:        model.Place{ID: "far", Location: model.Coordinate{Latitude: origin.Latitude + 2000/metersPerDegree, Longitude: origin.Longitude}},
		InferredType: model.ServiceContact,
		DistanceM:    10,
	}, now)
	near := model.NewFavorite(model.ClassifiedPlace{
		Place:        model.Place{ID: "near", Location: model.Coordinate{Latitude: origin.Latitude + 300/metersPerDegree, Longitude: origin.Longitude}},
		InferredType: model.ServiceFullService,
		DistanceM:    9000,
	}, now)
	favs := map[string]model.Favorite{"far": far, "near": near}

	t.Run("recomputed from origin", func(t *testing.T) {
		t.Parallel()
		o := origin
		got := FavoritesAt(favs, &o)
		require.Len(t, got, 2)
		assert.Equal(t, []string{"near", "far"}, ids(got))
		assert.Equal(t, 300, got[0].DistanceM)
		assert.Equal(t, 2000, got[1].DistanceM)
		assert.Equal(t, model.ServiceFullService, got[0].InferredType)
	})

	t.Run("stored distance without origin", func(t *testing.T) {
		t.Parallel()
		got := FavoritesAt(favs, nil)
		assert.Equal(t, []string{"far", "near"}, ids(got))
		assert.Equal(t, 10, got[0].DistanceM)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, FavoritesAt(nil, nil))
	})
}

func TestNormalizeRadius(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	tests := []struct {
		in   int
		want int
	}{
		{0, 3000},
		{-5, 3000},
		{3000, 3000},
		{1234, 1200},
		{1250, 1300},
		{100, 500},
		{449, 500},
		{4990, 5000},
		{12000, 5000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRadius(tt.in, cfg), "input %d", tt.in)
	}

	noStep := testConfig()
	noStep.RadiusStepM = 0
	assert.Equal(t, 1234, NormalizeRadius(1234, noStep))
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "awaiting_token_delay", StateAwaitingTokenDelay.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.False(t, StateFetchingPage.Terminal())
	assert.True(t, StateCancelled.Terminal())
}
