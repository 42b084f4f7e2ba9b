/*
Copyright 2022 The l7mp/stunner team.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l7mp/ddflow/internal/buildinfo"
	"github.com/l7mp/ddflow/internal/workload"
	"github.com/l7mp/ddflow/pkg/config"
	"github.com/l7mp/ddflow/pkg/dataflow"
	"github.com/l7mp/ddflow/pkg/trace/durable"
	"github.com/l7mp/ddflow/pkg/visualize"
)

var (
	version    = "dev"
	commitHash = "n/a"
	buildDate  = "<unknown>"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ddflow",
		Short:         "Shared arrangements for differential dataflow",
		Long:          "ddflow maintains indexed, incrementally compacted traces of update streams and shares them among readers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Int8P("verbosity", "v", -1, "Log verbosity, overrides the config when set")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the synthetic workload through an arrangement on every worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			results, err := execute(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			for _, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "worker %d: %d updates, %d keys, %d batches, %d answers, recovered through %s\n",
					res.Worker, res.Updates, res.Keys, res.Batches, res.Answers, res.Recovered)
			}
			return nil
		},
	}
	runCmd.Flags().Int("workers", 0, "Number of workers, overrides the config when set")
	runCmd.Flags().Int("rounds", -1, "Number of workload rounds, overrides the config when set")
	runCmd.Flags().String("data-dir", "", "Persist batches to this directory, overrides the config when set")
	runCmd.Flags().Bool("reset", false, "Drop previously persisted batches instead of recovering them")
	rootCmd.AddCommand(runCmd)

	visualizeCmd := &cobra.Command{
		Use:   "visualize",
		Short: "Run the workload on one worker and render the layout of its trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			gen, err := visualize.NewGenerator(format)
			if err != nil {
				return err
			}
			if m, ok := gen.(*visualize.MermaidGenerator); ok {
				m.TopDown, _ = cmd.Flags().GetBool("top-down")
			}

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			cfg.Workers = 1
			results, err := execute(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			if results[0].Graph == nil {
				return fmt.Errorf("trace does not expose its layout")
			}

			out := gen.Generate(results[0].Graph)
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return os.WriteFile(output, []byte(out), 0o644)
		},
	}
	visualizeCmd.Flags().String("format", "dot", "Output format: dot or mermaid")
	visualizeCmd.Flags().StringP("output", "o", "", "Write the diagram to a file instead of stdout")
	visualizeCmd.Flags().Bool("top-down", false, "Lay out Mermaid flowcharts top to bottom")
	rootCmd.AddCommand(visualizeCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			buildInfo := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
			fmt.Fprintln(cmd.OutOrStdout(), buildInfo.String())
		},
	}
	rootCmd.AddCommand(versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) (config.Config, logr.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, logr.Logger{}, err
	}
	if v, _ := cmd.Flags().GetInt8("verbosity"); v >= 0 {
		cfg.LogLevel = v
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if f := cmd.Flags().Lookup("rounds"); f != nil && f.Changed {
		cfg.Workload.Rounds, _ = cmd.Flags().GetInt("rounds")
	}
	if f := cmd.Flags().Lookup("data-dir"); f != nil && f.Changed {
		cfg.Durability.Enabled = true
		cfg.Durability.Dir, _ = cmd.Flags().GetString("data-dir")
	}
	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		cfg.Durability.Reset = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, logr.Logger{}, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, logr.Logger{}, err
	}
	return cfg, logger, nil
}

func newLogger(verbosity int8) (logr.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zc.OutputPaths = []string{"stderr"}
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	zl, err := zc.Build(zap.AddStacktrace(zapcore.Level(3)))
	if err != nil {
		return logr.Logger{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(zl).WithName("ddflow"), nil
}

func execute(ctx context.Context, cfg config.Config, logger logr.Logger) ([]*workload.Result, error) {
	// tag all logs of this run
	logger = logger.WithValues("run", ulid.Make().String())
	setupLog := logger.WithName("setup")
	buildInfo := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
	setupLog.Info(fmt.Sprintf("starting %s", buildInfo.String()), "workers", cfg.Workers)

	var store *durable.Store
	if cfg.Durability.Enabled {
		s, err := durable.Open(durable.Options{Dir: cfg.Durability.Dir, NoSync: cfg.Durability.NoSync, Logger: logger})
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := s.Close(); err != nil {
				setupLog.Error(err, "failed to close store")
			}
		}()
		store = s
	}

	results := make([]*workload.Result, cfg.Workers)
	err := dataflow.Execute(ctx, cfg.Workers, dataflow.Options{Logger: logger},
		func(ctx context.Context, w *dataflow.Worker) error {
			res, err := workload.Run(ctx, w, cfg, store)
			results[w.Index()] = res
			return err
		})
	if err != nil {
		return nil, err
	}
	setupLog.Info("workload complete")
	return results, nil
}
