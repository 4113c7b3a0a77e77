package search

import (
	"math"

	"github.com/sells-group/iwash/internal/config"
)

// NormalizeRadius snaps v to the configured step and clamps it into
// [MinRadiusM, MaxRadiusM]. Non-positive input yields the default radius.
func NormalizeRadius(v int, cfg config.SearchConfig) int {
	if v <= 0 {
		v = cfg.DefaultRadiusM
	}
	if cfg.RadiusStepM > 0 {
		step := float64(cfg.RadiusStepM)
		v = int(math.Round(float64(v)/step) * step)
	}
	if cfg.MinRadiusM > 0 && v < cfg.MinRadiusM {
		v = cfg.MinRadiusM
	}
	if cfg.MaxRadiusM > 0 && v > cfg.MaxRadiusM {
		v = cfg.MaxRadiusM
	}
	return v
}
