/*
Package cli provides command-line helpers for the meridian gateway
binary: structured command errors, signal handling for graceful
shutdown, and output formatters for command results.

Output Formatting:

Commands that print structured results (key generation, validation
reports) support text, JSON, and YAML output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	sigChan := cli.WaitForShutdown()
	<-sigChan
	// drain in-flight requests, then exit
*/
package cli
