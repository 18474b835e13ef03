// OpeningBell filing content pipeline.
//
// CLI entrypoint using the cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yueximo/opening-bell-backend/pkg/config"
	"github.com/yueximo/opening-bell-backend/pkg/core/edgar"
	"github.com/yueximo/opening-bell-backend/pkg/core/extract"
	"github.com/yueximo/opening-bell-backend/pkg/core/pipeline"
	"github.com/yueximo/opening-bell-backend/pkg/core/store"
	"github.com/yueximo/opening-bell-backend/pkg/core/summary"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "openingbell",
	Short: "OpeningBell — SEC filing content extraction and summarization",
	Long: `OpeningBell ingests SEC EDGAR filings, extracts structured facts per
form type (financial metrics, insider transactions, corporate events), and
generates the digest cards shown on filing feeds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = buildLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = lvl
	return zapCfg.Build()
}

// buildOrchestrator wires the pipeline from config. The returned cleanup
// closes the pool.
func buildOrchestrator(ctx context.Context) (*pipeline.Orchestrator, func(), error) {
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	st := store.NewPGStore(pool, logger)
	client := edgar.NewClient(cfg.EdgarUserAgent, cfg.HTTPTimeout, logger)
	registry := extract.NewRegistry(logger)
	generator := summary.NewGenerator(logger)

	orch := pipeline.NewOrchestrator(st, client, registry, generator, logger)
	return orch, pool.Close, nil
}

// --- Process Command ---

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one filing by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		filingID, err := cmd.Flags().GetInt64("filing-id")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		orch, cleanup, err := buildOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := orch.Process(ctx, filingID)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	processCmd.Flags().Int64("filing-id", 0, "id of the filing to process")
	processCmd.MarkFlagRequired("filing-id")
}

// --- Sweep Command ---

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Process every pending filing",
	RunE: func(cmd *cobra.Command, args []string) error {
		parallelism, err := cmd.Flags().GetInt("parallelism")
		if err != nil {
			return err
		}
		if parallelism == 0 {
			parallelism = cfg.SweepParallelism
		}

		ctx := cmd.Context()
		orch, cleanup, err := buildOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := orch.Sweep(ctx, parallelism)
		if stats != nil {
			fmt.Printf("processed: %d  skipped: %d  failed: %d\n",
				stats.Processed, stats.Skipped, stats.Failed)
		}
		return err
	},
}

func init() {
	sweepCmd.Flags().Int("parallelism", 0, "max concurrent filing runs (default from config)")
}

// --- Migrate Command ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}
