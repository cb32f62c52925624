package cmd

import (
	"fmt"

	"xkcdharvest/internal/formatter"
	"xkcdharvest/internal/store"

	"github.com/spf13/cobra"
)

var inspectOpts struct {
	format     string
	titleWidth int
	last       int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "List the records of a partition or of the base dataset.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Harvester.Store.Existing
		if len(args) == 1 {
			path = args[0]
		}

		records, err := store.LoadRecords(path)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}

		if inspectOpts.last > 0 && len(records) > inspectOpts.last {
			records = records[len(records)-inspectOpts.last:]
		}

		return formatter.WriteRecords(cmd.OutOrStdout(), records, inspectOpts.format, inspectOpts.titleWidth)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectOpts.format, "format", formatter.FormatTable, "output format: table, markdown")
	inspectCmd.Flags().IntVar(&inspectOpts.titleWidth, "title-width", formatter.DefaultTitleWidth, "truncate titles to this many columns")
	inspectCmd.Flags().IntVar(&inspectOpts.last, "last", 0, "only list the last n records")

	rootCmd.AddCommand(inspectCmd)
}
