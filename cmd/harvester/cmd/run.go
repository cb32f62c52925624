package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xkcdharvest/internal/formatter"
	"xkcdharvest/internal/harvest"
	"xkcdharvest/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runOpts struct {
	indexURL    string
	outputDir   string
	resumeAfter int
	maxWorkers  int
	dryRun      bool
	format      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest items newer than the stored resume point and write one partition.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := formatter.ValidateFormat(runOpts.format); err != nil {
			return err
		}

		if cmd.Flags().Changed("index-url") {
			cfg.Harvester.Sources.IndexURL = runOpts.indexURL
		}

		if cmd.Flags().Changed("output-dir") {
			cfg.Harvester.Output.Dir = runOpts.outputDir
		}

		if cmd.Flags().Changed("max-workers") {
			cfg.Harvester.Concurrency.MaxWorkers = runOpts.maxWorkers
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runID := uuid.NewString()
		runLog := log.With("run_id", runID)
		st := store.NewWithConfig(cfg, runLog)

		resumeAfter := runOpts.resumeAfter
		if resumeAfter < 0 {
			point, err := st.ResumePoint(cfg.Harvester.Store.StartAfterID)
			if err != nil {
				return fmt.Errorf("compute resume point: %w", err)
			}

			resumeAfter = point.ID
		}

		runLog.Info("Starting harvest",
			"index_url", cfg.Harvester.Sources.IndexURL,
			"resume_after_id", resumeAfter,
			"dry_run", runOpts.dryRun,
		)

		orchestrator, err := harvest.New(cfg, runLog)
		if err != nil {
			return err
		}

		result, err := orchestrator.Run(ctx, cfg.Harvester.Sources.IndexURL, resumeAfter)
		if err != nil {
			return fmt.Errorf("harvest failed: %w", err)
		}

		partition := ""

		if !result.Empty() && !runOpts.dryRun {
			partition, err = st.WritePartition(result.Records, result.MinID, result.MaxID)
			if err != nil {
				return fmt.Errorf("write partition: %w", err)
			}
		}

		runLog.Info("Harvest complete", "records", len(result.Records), "partition", partition)

		return formatter.WriteSummary(cmd.OutOrStdout(), formatter.Summary{
			RunID:     runID,
			Result:    result,
			Partition: partition,
			DryRun:    runOpts.dryRun,
		}, runOpts.format)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.indexURL, "index-url", "", "override harvester.sources.index_url")
	runCmd.Flags().StringVarP(&runOpts.outputDir, "output-dir", "o", "", "override harvester.output.dir")
	runCmd.Flags().IntVar(&runOpts.resumeAfter, "resume-after", -1, "harvest ids greater than this (default: computed from the store)")
	runCmd.Flags().IntVar(&runOpts.maxWorkers, "max-workers", 0, "override harvester.concurrency.max_workers")
	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false, "extract but do not write a partition")
	runCmd.Flags().StringVar(&runOpts.format, "format", formatter.FormatTable, "summary format: table, markdown")

	rootCmd.AddCommand(runCmd)
}
