/*
Package cli provides command-line helpers for the beacon command.

Output Formatting:

Commands print results as text or JSON:

	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Errors and Exit Codes:

Configuration problems map to ExitBadInput, other failures to ExitFailure:

	if err := root.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
