package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/site-select/internal/pipeline"
	"github.com/sells-group/site-select/internal/provider"
)

var inspectSource sourceFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize and validate the input dataset without running the analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		inspectSource.apply(cmd, &cfg.Source)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ds, err := loadDataset(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		report := pipeline.Validate(ds)
		out := cmd.OutOrStdout()
		formatDataset(out, provider.Summarize(ds))
		formatReport(out, report)
		return report.Err()
	},
}

func init() {
	inspectSource.register(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}
