/*
Package cli provides the output, status and error helpers shared by the
flowlog commands.

Output Formatting:

Log records can be printed as text, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, recs); err != nil {
		return err
	}

Status Reporting:

Status lines go to stderr so stdout can be piped:

	status := cli.NewStatus(os.Stderr, quiet)
	status.Start("querying loki")
	recs, err := query(ctx)
	if err != nil {
		status.Error(err)
		return err
	}
	status.Done(len(recs))

Exit Codes:

ExitCode maps configuration and argument errors to ExitUsage (2) and every
other failure to ExitFailure (1).
*/
package cli
