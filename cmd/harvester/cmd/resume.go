package cmd

import (
	"fmt"

	"xkcdharvest/internal/config"
	"xkcdharvest/internal/store"

	"github.com/spf13/cobra"
)

var resumePointCmd = &cobra.Command{
	Use:   "resume-point",
	Short: "Print the highest id already stored.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		point, err := store.NewWithConfig(cfg, log).ResumePoint(cfg.Harvester.Store.StartAfterID)
		if err != nil {
			return err
		}

		source := point.Source
		if source == "" {
			source = "harvester.store.start_after_id"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d\t(from %s, %d files, %d records scanned)\n",
			point.ID, source, point.Files, point.Records)

		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the effective configuration to --config or " + config.DefaultPath + ".",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath
		}

		if err := cfg.SaveConfig(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n%s\n", path, cfg)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumePointCmd)
	rootCmd.AddCommand(initConfigCmd)
}
