package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "site-select",
	Short: "Drone station site selection by spatial MCDA",
	Long: "Builds service demand and road exclusion zones from critical facilities and roads, " +
		"filters candidate sites through them and ranks the feasible sites with a weighted multi-criteria model.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
