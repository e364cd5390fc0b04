package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/permutest/permutest/analysis"
	"github.com/permutest/permutest/explore"
	"github.com/permutest/permutest/harness"
)

var (
	scenarioPath   string // Path to the scenario YAML file
	tacticName     string // Exploration tactic
	seed           int64  // Master seed for every RNG stream
	maxInvocations int    // Invocation budget
	verifierName   string // Results verifier; empty picks by scenario file
	logLevel       string // Log verbosity level
	coverageOut    string // Optional coverage plot path
	replayCheck    bool   // Re-run a found failure to confirm determinism
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "permutest",
	Short: "Systematic interleaving exploration for concurrent scenarios",
}

// explorationResult bundles what one exploration run produced.
type explorationResult struct {
	config  *ScenarioConfig
	runner  *harness.Runner
	series  *analysis.CoverageSeries
	failure *harness.Failure
}

// exploreScenario loads the scenario file and drives one full exploration
// with the given tactic.
func exploreScenario(ctx context.Context, path, tactic, verifier string, seed int64, budget int) (*explorationResult, error) {
	scn, err := LoadScenarioConfig(path)
	if err != nil {
		return nil, err
	}
	v, err := scn.Verifier(verifier)
	if err != nil {
		return nil, err
	}
	cfg := explore.Config{Tactic: tactic, Seed: seed, MaxInvocations: budget}
	runner, err := harness.NewRunner(scn.ToScenario(), cfg, v)
	if err != nil {
		return nil, err
	}
	series := analysis.NewCoverageSeries(tactic)
	runner.OnInvocation(series.Observe)

	failure, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &explorationResult{config: scn, runner: runner, series: series, failure: failure}, nil
}

// confirmReplay re-executes a found failure and checks the outcome matches.
func confirmReplay(res *explorationResult) error {
	out, err := res.runner.ReplayFailure(res.failure)
	if err != nil {
		return err
	}
	if out.Deadlocked != res.failure.Outcome.Deadlocked || !maps.Equal(out.Final, res.failure.Outcome.Final) {
		return fmt.Errorf("replay diverged: got %+v, recorded %+v", out, res.failure.Outcome)
	}
	return nil
}

// runCmd explores one scenario until a failure is found or the tactic stops
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Explore one scenario until a failure or exhaustion",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if scenarioPath == "" {
			logrus.Fatalf("No scenario file provided. Exiting.")
		}

		res, err := exploreScenario(context.Background(), scenarioPath, tacticName, verifierName, seed, maxInvocations)
		if err != nil {
			logrus.Fatalf("exploration failed: %v", err)
		}

		fmt.Println(res.series.Summary())
		if coverageOut != "" {
			if err := analysis.PlotCoverage(coverageOut, res.series); err != nil {
				logrus.Fatalf("writing coverage plot: %v", err)
			}
			logrus.Infof("coverage plot written to %s", coverageOut)
		}

		if res.failure == nil {
			fmt.Printf("%s: no failure found\n", res.config.Name)
			return
		}
		fmt.Printf("%s: failure at invocation %d: %s\n", res.config.Name, res.failure.Invocation, res.failure.Record)
		if res.failure.Outcome.Deadlocked {
			fmt.Println("outcome: deadlock")
		} else {
			fmt.Printf("outcome: final state %v\n", res.failure.Outcome.Final)
		}
		if replayCheck {
			if err := confirmReplay(res); err != nil {
				logrus.Fatalf("replay check failed: %v", err)
			}
			logrus.Info("replay check passed, the failure is reproducible")
		}
		os.Exit(1)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, compareCmd} {
		c.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
		c.Flags().Int64Var(&seed, "seed", 42, "Master seed for exploration randomness")
		c.Flags().IntVar(&maxInvocations, "max-invocations", 10000, "Invocation budget per tactic")
		c.Flags().StringVar(&verifierName, "verifier", "", "Results verifier (epsilon, final-state); default picks by scenario file")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().StringVar(&coverageOut, "coverage-out", "", "Write a coverage plot to this file")
	}
	runCmd.Flags().StringVar(&tacticName, "tactic", explore.TacticExhaustive, "Exploration tactic (exhaustive, weighted-random, descend)")
	runCmd.Flags().BoolVar(&replayCheck, "replay-check", false, "Replay a found failure and verify the outcome matches")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}
