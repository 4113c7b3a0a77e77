package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single car wash by name, tags and address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		address, _ := cmd.Flags().GetString("address")
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := initClassifier()
		if err != nil {
			return err
		}

		d := c.Classify(name, tags, address)
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(d), "encode decision")
		}
		formatDecision(os.Stdout, name, d)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("name", "", "place name")
	classifyCmd.Flags().StringSlice("tags", nil, "place type tags, e.g. car_wash,gas_station")
	classifyCmd.Flags().String("address", "", "place address")
	classifyCmd.Flags().Bool("json", false, "print the decision as JSON")
	_ = classifyCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(classifyCmd)
}
