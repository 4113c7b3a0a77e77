package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/internal/search"
	"github.com/sells-group/iwash/internal/session"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage saved car washes",
}

// -- favorites list --

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites ordered by distance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		favs, err := st.ListFavorites(ctx)
		if err != nil {
			return eris.Wrap(err, "favorites list")
		}

		format, _ := cmd.Flags().GetString("format")
		if err := validFormat(format); err != nil {
			return err
		}

		list := search.FavoritesAt(favs, originFlags(cmd))
		if format != formatTable {
			return writePlaces(os.Stdout, list, format)
		}
		formatFavoritesTable(os.Stdout, list, favs)
		return nil
	},
}

// -- favorites toggle --

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <place-id>",
	Short: "Save or unsave a place",
	Long:  "Saves a place found by a search around --lat/--lng, or unsaves an existing favorite.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		origin := originFlags(cmd)

		var sess *session.Session
		if origin != nil {
			env, err := initEnv(ctx, true)
			if err != nil {
				return err
			}
			defer env.Close()

			sess = session.New(env.Searcher, env.Store, cfg.Search)
			radius, _ := cmd.Flags().GetInt("radius")
			if _, err := sess.Search(ctx, *origin, radius); err != nil {
				return err
			}
		} else {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			sess = session.New(nil, st, cfg.Search)
		}
		defer sess.Close()

		favs, err := sess.ToggleFavorite(ctx, id)
		if err != nil {
			return err
		}
		if _, ok := favs[id]; ok {
			fmt.Printf("Saved %s (%d favorites)\n", id, len(favs))
		} else {
			fmt.Printf("Removed %s (%d favorites)\n", id, len(favs))
		}
		return nil
	},
}

// -- favorites remove --

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <place-id>",
	Short: "Remove a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.RemoveFavorite(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "favorites remove %s", args[0])
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// originFlags returns the --lat/--lng point, or nil when neither was set.
func originFlags(cmd *cobra.Command) *model.Coordinate {
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lng") {
		return nil
	}
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	return &model.Coordinate{Latitude: lat, Longitude: lng}
}

func init() {
	favoritesListCmd.Flags().Float64("lat", 0, "measure distances from this latitude")
	favoritesListCmd.Flags().Float64("lng", 0, "measure distances from this longitude")
	favoritesListCmd.Flags().String("format", "table", "output format: table, json or geojson")

	favoritesToggleCmd.Flags().Float64("lat", 0, "latitude to search around for the place")
	favoritesToggleCmd.Flags().Float64("lng", 0, "longitude to search around for the place")
	favoritesToggleCmd.Flags().Int("radius", 0, "search radius in meters (default from config)")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd, favoritesRemoveCmd)
	rootCmd.AddCommand(favoritesCmd)
}
