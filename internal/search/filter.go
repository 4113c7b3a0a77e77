package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/iwash/internal/geo"
	"github.com/sells-group/iwash/internal/model"
)

// FilterMode selects which places a list shows.
type FilterMode string

// Filter modes.
const (
	FilterAll         FilterMode = "ALL"
	FilterContact     FilterMode = "CONTACT"
	FilterNonContact  FilterMode = "NONCONTACT"
	FilterFullService FilterMode = "FULLSERVICE"
	FilterFavorites   FilterMode = "FAVORITES"
)

// ParseFilterMode parses a mode case-insensitively. Empty input is ALL.
func ParseFilterMode(s string) (FilterMode, error) {
	m := FilterMode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return FilterAll, nil
	case FilterAll, FilterContact, FilterNonContact, FilterFullService, FilterFavorites:
		return m, nil
	default:
		return "", eris.Errorf("search: unknown filter %q", s)
	}
}

// FilterByType keeps places whose inferred type matches mode. ALL and
// FAVORITES keep everything; favorites are resolved by FavoritesAt.
func FilterByType(places []model.ClassifiedPlace, mode FilterMode) []model.ClassifiedPlace {
	out := make([]model.ClassifiedPlace, 0, len(places))
	for _, p := range places {
		switch mode {
		case FilterContact, FilterNonContact, FilterFullService:
			if string(p.InferredType) != string(mode) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FavoritesAt turns saved favorites into a list sorted by distance. When
// origin is set the distance is recomputed from the stored coordinate,
// otherwise the distance captured at save time is used.
func FavoritesAt(favs map[string]model.Favorite, origin *model.Coordinate) []model.ClassifiedPlace {
	out := make([]model.ClassifiedPlace, 0, len(favs))
	for _, f := range favs {
		d := 0
		switch {
		case origin != nil:
			d = geo.RoundedDistance(*origin, f.Location)
		case f.DistanceM != nil:
			d = *f.DistanceM
		}
		out = append(out, f.Place(d))
	}

	slices.SortFunc(out, func(a, b model.ClassifiedPlace) int {
		if c := cmp.Compare(a.DistanceM, b.DistanceM); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
