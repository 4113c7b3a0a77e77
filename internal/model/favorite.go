package model

import "time"

// Favorite is a snapshot of a ClassifiedPlace taken when the user favorited
// it. Name, address and type are frozen at that moment; only the distance is
// recomputed on display from the persisted coordinate.
type Favorite struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Address          string      `json:"address"`
	Location         Coordinate  `json:"location"`
	InferredType     ServiceType `json:"inferred_type"`
	Rating           *float64    `json:"rating,omitempty"`
	UserRatingsTotal int         `json:"user_ratings_total"`
	OpenNow          *bool       `json:"open_now"`
	DistanceM        *int        `json:"distance_m"`
	SavedAt          time.Time   `json:"saved_at"`
}

// NewFavorite snapshots p.
func NewFavorite(p ClassifiedPlace, savedAt time.Time) Favorite {
	f := Favorite{
		ID:           p.ID,
		Name:         p.Name,
		Address:      p.Address,
		Location:     p.Location,
		InferredType: p.InferredType,
		Rating:       p.Rating,
		OpenNow:      p.OpenNow,
		SavedAt:      savedAt.UTC(),
	}
	if p.UserRatingsTotal != nil {
		f.UserRatingsTotal = *p.UserRatingsTotal
	}
	d := p.DistanceM
	f.DistanceM = &d
	return f
}

// Place converts the snapshot back into a ClassifiedPlace with the given
// distance.
func (f Favorite) Place(distanceM int) ClassifiedPlace {
	total := f.UserRatingsTotal
	return ClassifiedPlace{
		Place: Place{
			ID:               f.ID,
			Name:             f.Name,
			Address:          f.Address,
			Location:         f.Location,
			Rating:           f.Rating,
			UserRatingsTotal: &total,
			OpenNow:          f.OpenNow,
		},
		InferredType: f.InferredType,
		DistanceM:    distanceM,
	}
}
