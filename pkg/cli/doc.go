/*
Package cli provides command-line utilities shared by the relay command.

The package includes output formatters, command error types, and signal
handling helpers.

Output Formatting:

Command results render as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext()
	defer stop()
	// ctx is canceled on the first signal; a second signal
	// kills the process through Go's default handler.
*/
package cli
