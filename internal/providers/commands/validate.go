package commands

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxCommandLength = 4096
	MaxArgLength     = 4096
	MaxArgs          = 100
)

// forbiddenChars would let a command name smuggle in shell syntax
const forbiddenChars = ";&|$`(){}[]<>\n\r\x00'\"\\"

var (
	ErrInvalidCommand   = errors.New("invalid command")
	ErrCommandNotFound  = errors.New("command not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTimeout          = errors.New("command timed out")
)

// ValidateCommand rejects names that are empty, too long, carry shell
// metacharacters, look like options or traverse upwards
func ValidateCommand(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: command cannot be empty", ErrInvalidCommand)
	case len(name) > MaxCommandLength:
		return fmt.Errorf("%w: command too long: %d chars (max %d)", ErrInvalidCommand, len(name), MaxCommandLength)
	}
	if i := strings.IndexAny(name, forbiddenChars); i >= 0 {
		return fmt.Errorf("%w: command contains forbidden character %q, pass arguments instead of shell syntax",
			ErrInvalidCommand, name[i])
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: command cannot start with '-'", ErrInvalidCommand)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: command cannot contain '..' path traversal", ErrInvalidCommand)
	}
	return nil
}

// ValidateArgs bounds the argument list and rejects NUL bytes
func ValidateArgs(args []string) error {
	if len(args) > MaxArgs {
		return fmt.Errorf("%w: too many arguments: %d (max %d)", ErrInvalidCommand, len(args), MaxArgs)
	}
	for i, arg := range args {
		if len(arg) > MaxArgLength {
			return fmt.Errorf("%w: argument %d too long: %d chars (max %d)", ErrInvalidCommand, i, len(arg), MaxArgLength)
		}
		if strings.IndexByte(arg, 0) >= 0 {
			return fmt.Errorf("%w: argument %d contains null byte", ErrInvalidCommand, i)
		}
	}
	return nil
}
