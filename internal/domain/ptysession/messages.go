package ptysession

import "fmt"

// Diagnostic lines written inline into the pane
const (
	msgExhausted    = "\r\n\x1b[31m[Could not start terminal. Please restart the application.]\x1b[0m\r\n"
	msgReconnecting = "\r\n\x1b[33m[Connection lost, reconnecting...]\x1b[0m\r\n"
)

func createFailedMessage(attempt, total int, err error) string {
	return fmt.Sprintf("\r\n\x1b[33m[Failed to create terminal session (attempt %d/%d): %v]\x1b[0m\r\n", attempt, total, err)
}

func exitMessage(code *int) string {
	if code == nil {
		return "\r\n\x1b[90m[Process exited]\x1b[0m\r\n"
	}
	return fmt.Sprintf("\r\n\x1b[90m[Process exited with code %d]\x1b[0m\r\n", *code)
}
