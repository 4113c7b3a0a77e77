package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/iwash/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change user settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s, err := st.GetSettings(ctx)
		if err != nil {
			return eris.Wrap(err, "settings show")
		}
		return writeSettings(os.Stdout, s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s, err := st.GetSettings(ctx)
		if err != nil {
			return eris.Wrap(err, "settings set")
		}

		s, err = applySettingsFlags(s, cmd.Flags())
		if err != nil {
			return err
		}
		if err := st.SaveSettings(ctx, s); err != nil {
			return eris.Wrap(err, "settings set")
		}
		return writeSettings(os.Stdout, s)
	},
}

// applySettingsFlags overlays the flags that were set on s and validates
// the result.
func applySettingsFlags(s model.Settings, flags *pflag.FlagSet) (model.Settings, error) {
	if flags.Changed("auto-reload") {
		s.AutoReload, _ = flags.GetBool("auto-reload")
	}
	if flags.Changed("radius") {
		s.DefaultRadiusM, _ = flags.GetInt("radius")
	}
	if flags.Changed("search-from") {
		v, _ := flags.GetString("search-from")
		s.SearchFrom = model.SearchFrom(v)
	}
	if flags.Changed("theme") {
		v, _ := flags.GetString("theme")
		s.Theme = model.Theme(v)
	}
	if flags.Changed("nav") {
		v, _ := flags.GetString("nav")
		s.PreferredNav = model.NavApp(v)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func writeSettings(w io.Writer, s model.Settings) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(s), "encode settings")
}

func addSettingsFlags(f *pflag.FlagSet) {
	f.Bool("auto-reload", false, "reload results when the map moves")
	f.Int("radius", 0, "default search radius in meters")
	f.String("search-from", "", "myLocation or mapCenter")
	f.String("theme", "", "system, light or dark")
	f.String("nav", "", "preferred navigation app: ask, apple, google or waze")
}

func init() {
	addSettingsFlags(settingsSetCmd.Flags())

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
