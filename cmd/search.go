package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/internal/search"
	"github.com/sells-group/iwash/internal/session"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for car washes around a point",
	Long:  "Runs a paginated nearby search, classifies every result and prints them ordered by distance.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		radius, _ := cmd.Flags().GetInt("radius")
		filter, _ := cmd.Flags().GetString("filter")
		format, _ := cmd.Flags().GetString("format")

		mode, err := search.ParseFilterMode(filter)
		if err != nil {
			return err
		}
		if err := validFormat(format); err != nil {
			return err
		}

		env, err := initEnv(ctx, mode == search.FilterFavorites)
		if err != nil {
			return err
		}
		defer env.Close()

		sess := session.New(env.Searcher, env.Store, cfg.Search)
		defer sess.Close()

		if _, err := sess.Search(ctx, model.Coordinate{Latitude: lat, Longitude: lng}, radius); err != nil {
			return err
		}
		sess.SetFilter(mode)

		visible, err := sess.Visible(ctx)
		if err != nil {
			return err
		}
		return writePlaces(os.Stdout, visible, format)
	},
}

func init() {
	searchCmd.Flags().Float64("lat", 0, "latitude of the search origin")
	searchCmd.Flags().Float64("lng", 0, "longitude of the search origin")
	searchCmd.Flags().Int("radius", 0, "search radius in meters (default from config)")
	searchCmd.Flags().String("filter", "ALL", "ALL, CONTACT, NONCONTACT, FULLSERVICE or FAVORITES")
	searchCmd.Flags().String("format", "table", "output format: table, json or geojson")
	_ = searchCmd.MarkFlagRequired("lat")
	_ = searchCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(searchCmd)
}
