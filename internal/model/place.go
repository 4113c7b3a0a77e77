// Package model holds the data shapes shared by the classifier, the search
// aggregator and the persistence layer.
package model

// ServiceType is the inferred service type of a car wash.
type ServiceType string

const (
	ServiceContact     ServiceType = "CONTACT"     // automated tunnel or portal
	ServiceNonContact  ServiceType = "NONCONTACT"  // touchless or self-service boxes
	ServiceFullService ServiceType = "FULLSERVICE" // hand wash, detailing, valet
	ServiceUnknown     ServiceType = "UNKNOWN"
)

// serviceLabels are the display labels used by the app.
var serviceLabels = map[ServiceType]string{
	ServiceContact:     "Kontaktní",
	ServiceNonContact:  "Bezkontaktní",
	ServiceFullService: "Full service",
	ServiceUnknown:     "Neznámé",
}

// Label returns the display label for the service type.
func (t ServiceType) Label() string {
	if l, ok := serviceLabels[t]; ok {
		return l
	}
	return serviceLabels[ServiceUnknown]
}

// Valid reports whether t is one of the four known service types.
func (t ServiceType) Valid() bool {
	_, ok := serviceLabels[t]
	return ok
}

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a raw result from the remote places service, mapped to our shape.
type Place struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Address          string     `json:"address"`
	Types            []string   `json:"types"`
	Location         Coordinate `json:"location"`
	Rating           *float64   `json:"rating,omitempty"`
	UserRatingsTotal *int       `json:"user_ratings_total,omitempty"`
	OpenNow          *bool      `json:"open_now,omitempty"` // nil when unknown
}

// ClassifiedPlace is a Place annotated with its inferred type and its
// distance from the search origin. InferredType is computed once per raw
// result; a new search re-derives it from the source.
type ClassifiedPlace struct {
	Place
	InferredType ServiceType `json:"inferred_type"`
	DistanceM    int         `json:"distance_m"`
}
