package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// errCancelled is returned when the user declines a confirmation prompt.
var errCancelled = errors.New("operation cancelled")

// promptRunner runs a promptui prompt; tests replace it.
var promptRunner = func(pr *promptui.Prompt) (string, error) {
	return pr.Run()
}

// confirm asks a yes/no question, defaulting to no.
func confirm(label string) error {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	result, err := promptRunner(&prompt)
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return errCancelled
		}
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !strings.EqualFold(result, "y") {
		return errCancelled
	}
	return nil
}
