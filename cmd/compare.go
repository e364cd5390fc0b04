package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/permutest/permutest/analysis"
	"github.com/permutest/permutest/explore"
)

// compareCmd runs every tactic against the same scenario, side by side. Each
// tactic gets its own scheduler and tree; only the scenario file is shared.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every tactic against one scenario and compare coverage",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if scenarioPath == "" {
			logrus.Fatalf("No scenario file provided. Exiting.")
		}

		tactics := []string{explore.TacticExhaustive, explore.TacticWeightedRandom, explore.TacticDescend}
		results := make([]*explorationResult, len(tactics))

		g, ctx := errgroup.WithContext(context.Background())
		for i, tactic := range tactics {
			i, tactic := i, tactic
			g.Go(func() error {
				res, err := exploreScenario(ctx, scenarioPath, tactic, verifierName, seed, maxInvocations)
				if err != nil {
					return fmt.Errorf("%s: %w", tactic, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logrus.Fatalf("comparison failed: %v", err)
		}

		failed := false
		for _, res := range results {
			fmt.Println(res.series.Summary())
			if res.failure != nil {
				failed = true
				fmt.Printf("  failure at invocation %d: %s\n", res.failure.Invocation, res.failure.Record)
			}
		}
		if coverageOut != "" {
			series := make([]*analysis.CoverageSeries, len(results))
			for i, res := range results {
				series[i] = res.series
			}
			if err := analysis.PlotCoverage(coverageOut, series...); err != nil {
				logrus.Fatalf("writing coverage plot: %v", err)
			}
			logrus.Infof("coverage plot written to %s", coverageOut)
		}
		if failed {
			os.Exit(1)
		}
	},
}
