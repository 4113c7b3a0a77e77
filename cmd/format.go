package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/iwash/internal/classify"
	"github.com/sells-group/iwash/internal/geo"
	"github.com/sells-group/iwash/internal/model"
)

// Output formats accepted by --format.
const (
	formatTable   = "table"
	formatJSON    = "json"
	formatGeoJSON = "geojson"
)

func validFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatGeoJSON:
		return nil
	default:
		return eris.Errorf("unknown format %q (want table, json or geojson)", f)
	}
}

// writePlaces renders places in the requested format.
func writePlaces(w io.Writer, places []model.ClassifiedPlace, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(places), "encode places")
	case formatGeoJSON:
		data, err := geo.FeatureCollection(places)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return eris.Wrap(err, "write geojson")
	default:
		formatPlacesTable(w, places)
		return nil
	}
}

func formatPlacesTable(w io.Writer, places []model.ClassifiedPlace) {
	if len(places) == 0 {
		fmt.Fprintln(w, "No car washes found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDISTANCE\tTYPE\tNAME\tADDRESS\tRATING\tOPEN")
	for i, p := range places {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			geo.FormatDistance(p.DistanceM),
			p.InferredType.Label(),
			p.Name,
			p.Address,
			formatRating(p.Rating, p.UserRatingsTotal),
			formatOpen(p.OpenNow),
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatRating(rating *float64, total *int) string {
	if rating == nil {
		return "-"
	}
	s := strconv.FormatFloat(*rating, 'f', 1, 64)
	if total != nil {
		s += fmt.Sprintf(" (%d)", *total)
	}
	return s
}

func formatOpen(open *bool) string {
	switch {
	case open == nil:
		return "-"
	case *open:
		return "yes"
	default:
		return "no"
	}
}

// formatDecision prints a classifier decision with its per-category scores.
func formatDecision(w io.Writer, name string, d classify.Decision) {
	if d.Excluded {
		fmt.Fprintf(w, "%s: excluded\n", name)
		return
	}

	fmt.Fprintf(w, "%s: %s (%s)\n", name, d.Type.Label(), d.Type)
	if d.Overridden {
		fmt.Fprintln(w, "  forced to full service by override list")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CATEGORY\tSCORE")
	fmt.Fprintf(tw, "  %s\t%d\n", model.ServiceFullService, d.Scores.FullService)
	fmt.Fprintf(tw, "  %s\t%d\n", model.ServiceNonContact, d.Scores.NonContact)
	fmt.Fprintf(tw, "  %s\t%d\n", model.ServiceContact, d.Scores.Contact)
	tw.Flush() //nolint:errcheck
}

// formatFavoritesTable prints favorites with the date they were saved.
func formatFavoritesTable(w io.Writer, places []model.ClassifiedPlace, favs map[string]model.Favorite) {
	if len(places) == 0 {
		fmt.Fprintln(w, "No favorites saved.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDISTANCE\tTYPE\tNAME\tADDRESS\tSAVED")
	for _, p := range places {
		saved := "-"
		if f, ok := favs[p.ID]; ok && !f.SavedAt.IsZero() {
			saved = f.SavedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			geo.FormatDistance(p.DistanceM),
			p.InferredType.Label(),
			p.Name,
			strings.TrimSpace(p.Address),
			saved,
		)
	}
	tw.Flush() //nolint:errcheck
}
