package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/flowlog/pkg/cli"
	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/records"
)

type queryFlags struct {
	hoursAgo  float64
	step      float64
	limit     int
	direction string
	strict    bool
	output    string
	quiet     bool
}

var queryOpts queryFlags

var queryCmd = &cobra.Command{
	Use:   "query <logql>",
	Short: "Run a LogQL range query and print normalized records",
	Long: `Run one range query against Loki over the last --since hours and print the
results as normalized records, oldest first.

Examples:
  flowlog query '{source="nextflow"} | json' --since 6
  flowlog query '{source="nextflow"} |= "ERROR"' --limit 100 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Float64Var(&queryOpts.hoursAgo, "since", 1, "lookback window in hours")
	queryCmd.Flags().Float64Var(&queryOpts.step, "step", 0, "query step in seconds (0 = 60)")
	queryCmd.Flags().IntVar(&queryOpts.limit, "limit", 0, "maximum number of entries (0 = no limit)")
	queryCmd.Flags().StringVar(&queryOpts.direction, "direction", "BACKWARD", "FORWARD or BACKWARD")
	queryCmd.Flags().BoolVar(&queryOpts.strict, "strict", false, "fail on payloads that are not JSON objects")
	queryCmd.Flags().StringVarP(&queryOpts.output, "output", "o", "text", "output format: text, json or csv")
	queryCmd.Flags().BoolVarP(&queryOpts.quiet, "quiet", "q", false, "suppress status lines")
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(queryOpts.output)
	if err != nil {
		return err
	}
	direction, err := loki.ParseDirection(queryOpts.direction)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	status := cli.NewStatus(cmd.ErrOrStderr(), queryOpts.quiet)
	status.Start("querying " + a.loki.BaseURL())

	flat, err := a.loki.QueryRange(ctx, loki.QueryRangeRequest{
		Query:       args[0],
		HoursAgo:    queryOpts.hoursAgo,
		StepSeconds: queryOpts.step,
		Limit:       queryOpts.limit,
		Direction:   direction,
	})
	if err != nil {
		status.Error(err)
		return cli.NewCommandError("query", err)
	}

	recs, err := records.Normalize(flat, records.Options{Strict: queryOpts.strict})
	if err != nil {
		status.Error(err)
		return cli.NewCommandError("query", err)
	}
	status.Done(len(recs))

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), recs)
}
