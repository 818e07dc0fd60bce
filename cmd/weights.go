package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/site-select/internal/mcda"
)

var weightsProfiles string

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "List the available criteria weight profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Weights.ProfilesPath
		if cmd.Flags().Changed("profiles") {
			path = weightsProfiles
		}

		profiles, err := mcda.LoadProfiles(path)
		if err != nil {
			return err
		}
		formatProfiles(cmd.OutOrStdout(), profiles, cfg.Weights.Weights)
		return nil
	},
}

func init() {
	weightsCmd.Flags().StringVar(&weightsProfiles, "profiles", "", "YAML file with extra weight profiles")
	rootCmd.AddCommand(weightsCmd)
}
