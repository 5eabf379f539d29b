package cmd

import (
	"errors"
	"fmt"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
)

// userError turns a component error into what the command prints.
// Transport failures name the server that could not be reached. Errors
// without a user-facing reason keep their detail.
func userError(err error) error {
	msg := backend.UserMessage(err)
	switch {
	case backend.IsNetwork(err) && cfg != nil:
		return fmt.Errorf("%s (server: %s)", msg, cfg.APIBaseURL())
	case backend.IsNetwork(err), backend.IsRejection(err):
		return errors.New(msg)
	}

	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
