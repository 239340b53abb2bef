package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/flowlog/pkg/cli"
	"mercator-hq/flowlog/pkg/tools"
)

var (
	logsLookback float64
	logsOutput   string
	logsQuiet    bool
)

var logsCmd = &cobra.Command{
	Use:   "logs <run-name>",
	Short: "Print the logs of one pipeline run",
	Long: `Fetch every log record of a Nextflow run using the runs.query_template
query, oldest first. This is the same retrieval the retrieve_logs_for_run tool
performs.

Examples:
  flowlog logs happy_turing
  flowlog logs happy_turing --lookback 168 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().Float64Var(&logsLookback, "lookback", 0, "lookback window in hours (0 = runs.lookback_hours)")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "text", "output format: text, json or csv")
	logsCmd.Flags().BoolVarP(&logsQuiet, "quiet", "q", false, "suppress status lines")
}

func runLogs(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(logsOutput)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer a.close()

	tool, err := tools.NewRunLogs(a.loki, &a.cfg.Runs, a.tel.Logger)
	if err != nil {
		return err
	}

	lookback := tool.LookbackHours()
	if cmd.Flags().Changed("lookback") {
		lookback = logsLookback
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	status := cli.NewStatus(cmd.ErrOrStderr(), logsQuiet)
	status.Start("fetching logs for run " + args[0])

	recs, err := tool.Records(ctx, args[0], lookback)
	if err != nil {
		status.Error(err)
		return cli.NewCommandError("logs", err)
	}
	status.Done(len(recs))

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), recs)
}
