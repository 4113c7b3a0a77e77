package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/iwash/internal/model"
)

// FeatureCollection encodes places as a GeoJSON FeatureCollection of points
// for map clients. Feature order follows the input order.
func FeatureCollection(places []model.ClassifiedPlace) ([]byte, error) {
	fc := geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(places)),
	}

	for _, p := range places {
		pt := geom.NewPointFlat(geom.XY, []float64{p.Location.Longitude, p.Location.Latitude})

		props := map[string]interface{}{
			"name":          p.Name,
			"address":       p.Address,
			"inferred_type": string(p.InferredType),
			"type_label":    p.InferredType.Label(),
			"distance_m":    p.DistanceM,
			"distance_text": FormatDistance(p.DistanceM),
		}
		if p.Rating != nil {
			props["rating"] = *p.Rating
		}
		if p.UserRatingsTotal != nil {
			props["user_ratings_total"] = *p.UserRatingsTotal
		}
		if p.OpenNow != nil {
			props["open_now"] = *p.OpenNow
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.ID,
			Geometry:   pt,
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal feature collection")
	}
	return data, nil
}
