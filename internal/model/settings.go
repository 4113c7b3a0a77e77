package model

import (
	"github.com/rotisserie/eris"
)

// SearchFrom selects which coordinate a search is centred on.
type SearchFrom string

const (
	SearchFromMyLocation SearchFrom = "myLocation"
	SearchFromMapCenter  SearchFrom = "mapCenter"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// NavApp is the preferred external navigation app.
type NavApp string

const (
	NavAsk    NavApp = "ask"
	NavApple  NavApp = "apple"
	NavGoogle NavApp = "google"
	NavWaze   NavApp = "waze"
)

// Settings is the persisted user preference record.
type Settings struct {
	AutoReload     bool       `json:"autoReload"`
	DefaultRadiusM int        `json:"defaultRadiusM"`
	SearchFrom     SearchFrom `json:"searchFrom"`
	Theme          Theme      `json:"theme"`
	PreferredNav   NavApp     `json:"preferredNav"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		AutoReload:     false,
		DefaultRadiusM: 3000,
		SearchFrom:     SearchFromMyLocation,
		Theme:          ThemeSystem,
		PreferredNav:   NavAsk,
	}
}

// Validate checks the enumerated fields.
func (s Settings) Validate() error {
	switch s.SearchFrom {
	case SearchFromMyLocation, SearchFromMapCenter:
	default:
		return eris.Errorf("settings: invalid searchFrom %q", s.SearchFrom)
	}
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return eris.Errorf("settings: invalid theme %q", s.Theme)
	}
	switch s.PreferredNav {
	case NavAsk, NavApple, NavGoogle, NavWaze:
	default:
		return eris.Errorf("settings: invalid preferredNav %q", s.PreferredNav)
	}
	if s.DefaultRadiusM <= 0 {
		return eris.Errorf("settings: defaultRadiusM must be positive, got %d", s.DefaultRadiusM)
	}
	return nil
}

// SearchOrigin picks the coordinate a search should use. The device
// location wins when SearchFrom is myLocation and a fix is available;
// otherwise the map center is used. Returns false when neither is known.
func (s Settings) SearchOrigin(device, mapCenter *Coordinate) (Coordinate, bool) {
	if s.SearchFrom == SearchFromMyLocation && device != nil {
		return *device, true
	}
	if mapCenter != nil {
		return *mapCenter, true
	}
	return Coordinate{}, false
}
