package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/config"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/pipeline"
)

var (
	runSource     sourceFlags
	runRadius     float64
	runBuffer     float64
	runMinArea    float64
	runTopN       int
	runProfile    string
	runProfiles   string
	runSequential bool
	runJSON       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the site selection analysis",
	Example: `  site-select run --critical hospitals.geojson --candidates parks.geojson --roads roads.geojson
  site-select run --driver gpkg --path tehran.gpkg --critical hospitals --candidates parks --roads roads --top 10
  site-select run --profile coverage_heavy --profiles profiles.yaml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		w, err := resolveWeights(cfg.Weights)
		if err != nil {
			return err
		}

		ds, err := loadDataset(ctx, cfg)
		if err != nil {
			return err
		}

		res, err := pipeline.Run(ctx, ds, pipeline.ParamsFromConfig(cfg.Analysis, w))
		if err != nil {
			return eris.Wrap(err, "run analysis")
		}

		out := cmd.OutOrStdout()
		if runJSON {
			sites := make([]map[string]any, 0, len(res.Ranking.Top))
			for _, s := range res.Ranking.Top {
				sites = append(sites, s.Flat())
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Summary pipeline.Summary `json:"summary"`
				Sites   []map[string]any `json:"sites"`
			}{res.Summary(), sites})
		}

		if err := res.Outcome(); err != nil {
			zap.L().Warn("run: no feasible sites", zap.Error(err))
			printNoSites(out, res)
		} else {
			formatRanking(out, res.Ranking.Top)
		}
		formatWarnings(out, res.Validation.Warnings)
		formatSummary(out, res.Summary())
		return nil
	},
}

// applyRunFlags copies every set flag into c.
func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	runSource.apply(cmd, &c.Source)
	flags := cmd.Flags()
	if flags.Changed("radius") {
		c.Analysis.ServiceRadius = runRadius
	}
	if flags.Changed("buffer") {
		c.Analysis.RoadBuffer = runBuffer
	}
	if flags.Changed("min-area") {
		c.Analysis.MinSiteArea = runMinArea
	}
	if flags.Changed("top") {
		c.Analysis.TopN = runTopN
	}
	if flags.Changed("sequential") {
		c.Analysis.ConcurrentZones = !runSequential
	}
	if flags.Changed("profile") {
		c.Weights.Profile = runProfile
	}
	if flags.Changed("profiles") {
		c.Weights.ProfilesPath = runProfiles
	}
}

// resolveWeights returns the named profile's weights when a profile is set,
// and the configured weights otherwise.
func resolveWeights(wc config.WeightsConfig) (mcda.Weights, error) {
	if wc.Profile == "" {
		return wc.Weights, nil
	}
	profiles, err := mcda.LoadProfiles(wc.ProfilesPath)
	if err != nil {
		return mcda.Weights{}, err
	}
	return mcda.Resolve(profiles, wc.Profile)
}

func registerRunFlags(cmd *cobra.Command) {
	runSource.register(cmd)
	cmd.Flags().Float64Var(&runRadius, "radius", 0, "drone service radius in metres")
	cmd.Flags().Float64Var(&runBuffer, "buffer", 0, "road safety buffer in metres")
	cmd.Flags().Float64Var(&runMinArea, "min-area", 0, "minimum safe site area in square metres")
	cmd.Flags().IntVar(&runTopN, "top", 0, "number of recommended sites")
	cmd.Flags().StringVar(&runProfile, "profile", "", "named weight profile")
	cmd.Flags().StringVar(&runProfiles, "profiles", "", "YAML file with extra weight profiles")
	cmd.Flags().BoolVar(&runSequential, "sequential", false, "build the demand and exclusion zones one after the other")
	cmd.Flags().BoolVar(&runJSON, "json", false, "print the summary and recommended sites as JSON")
}

func init() {
	registerRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
