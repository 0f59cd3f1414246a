package engine

import (
	"errors"
	"fmt"

	"taskdeck/internal/models"
)

// ErrInvalidOption is returned by the executor when a selected option
// carries the "invalid" sentinel value.
var ErrInvalidOption = errors.New("invalid option selected")

// GuardError reports a structurally impossible transition. It is returned
// as a value so handlers can render the message inline.
type GuardError struct {
	From    models.TaskStatus
	To      models.TaskStatus
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("transition %s -> %s rejected: %s", e.From, e.To, e.Message)
}

// IsGuardError reports whether err wraps a GuardError.
func IsGuardError(err error) bool {
	var ge *GuardError
	return errors.As(err, &ge)
}
