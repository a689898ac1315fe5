package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"AssetForecast/internal/model"
	"AssetForecast/internal/recorder"
	"AssetForecast/internal/report"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded forecast runs, or show the rows of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 10, "Number of runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return err
	}
	defer rec.Close()
	return printRuns(cmd.OutOrStdout(), rec, args, flagRunsLimit)
}

func printRuns(out io.Writer, rec recorder.Recorder, args []string, limit int) error {
	if len(args) == 1 {
		records, err := rec.RunRecords(args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No rows recorded for run %s.\n", args[0])
			return nil
		}
		fmt.Fprint(out, report.RenderTable(report.ForecastTable(records, horizonOf(records))))
		return nil
	}

	runs, err := rec.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprint(out, report.RenderTable(report.RunsTable(runs)))
	return nil
}

// horizonOf counts the distinct forecast years in records.
func horizonOf(records []model.ForecastRecord) int {
	years := map[int]bool{}
	for _, r := range records {
		years[r.Year] = true
	}
	return len(years)
}
