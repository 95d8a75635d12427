package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrStepOutOfRange is returned by JumpTo for indexes outside the wizard.
	ErrStepOutOfRange = errors.New("step out of range")

	// ErrInvalidSelection is returned when a card carries no id or name.
	ErrInvalidSelection = errors.New("invalid selection")
)

// ValidationError is a recoverable navigation failure: the visitor tried to
// jump past a step whose selection is still missing. Message is meant for the
// visitor; nothing in the wizard changes.
type ValidationError struct {
	Target  Step // step the visitor tried to reach
	Missing Step // first step whose selection is incomplete
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot jump to %q: %q is incomplete", e.Target, e.Missing)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
