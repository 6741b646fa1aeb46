package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"curator/internal/processor"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "process <path>...",
		Short: "Run the organization pipeline over files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cleanup, err := ctx.buildProcessor(dryRun)
			if err != nil {
				return err
			}
			defer cleanup()

			var all processor.Report
			for _, arg := range args {
				report, err := proc.ProcessPath(cmd.Context(), arg)
				if err != nil {
					return err
				}
				all.Results = append(all.Results, report.Results...)
				all.Elapsed += report.Elapsed
			}

			printReport(cmd, all, dryRun)
			if all.Failed() > 0 {
				return fmt.Errorf("%d of %d files failed", all.Failed(), len(all.Results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned changes without touching any file")
	return cmd
}

func printReport(cmd *cobra.Command, report processor.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "No media files found.")
		return
	}

	if isTerminal() {
		fmt.Fprintln(out, reportTable(report.Results))
	} else {
		for _, res := range report.Results {
			fmt.Fprintf(out, "%s\t%s\t%s\n", statusLabel(res), res.OriginalPath, displayPath(res))
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "\terror: %s\n", msg)
			}
			for _, msg := range res.Warnings {
				fmt.Fprintf(out, "\twarning: %s\n", msg)
			}
		}
	}

	verb := "processed"
	if dryRun {
		verb = "planned"
	}
	fmt.Fprintf(out, "%d files %s: %d succeeded, %d failed, %d with warnings (%.1fs)\n",
		len(report.Results), verb, report.Succeeded(), report.Failed(), report.Warned(),
		report.Elapsed.Seconds())
}

func statusLabel(res processor.Result) string {
	switch {
	case res.Success && len(res.Warnings) > 0:
		return "WARN"
	case res.Success:
		return "OK"
	default:
		return "FAIL"
	}
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
