/*
Package cli provides helpers shared by the dsm command.

Output Formatting:

Evaluation results are written as JSON (the default) or YAML. Flat records
from list and node evaluations can also be written as CSV or an aligned
table, with the fixed record columns first and common fields after:

	format, err := cli.ParseFormat("csv")
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result.Records); err != nil {
		return err
	}

JSON output writes NaN and infinite floats as null.

Exit Codes:

ExitCode maps command errors to exit codes, so scripts can tell a broken
model (3) from a failed evaluation (4) or bad configuration (2).

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
