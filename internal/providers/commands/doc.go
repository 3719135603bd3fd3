// Package commands runs one-off commands for the UI's command bar and
// completes command names from $PATH.
//
// Commands are executed directly (no shell), after validation: names may not
// contain shell metacharacters, start with '-' or contain "..", and argument
// lists are bounded. Every run has a timeout.
//
// Completion scans $PATH once per TTL; concurrent lookups share one scan.
//
// Example Usage:
//
//	r := commands.NewRunner(commands.Options{Timeout: 10 * time.Second})
//	res, err := r.Run(ctx, "git", []string{"status", "--short"}, 0)
//
//	c := commands.NewCompleter(time.Minute, logger)
//	c.Complete("gi") // [gi git gitk ...]
package commands
