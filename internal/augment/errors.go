package augment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPolicy    = errors.New("invalid augmentation policy")
	ErrUnknownOperation = errors.New("unknown augmentation operation")
)

// ConfigurationError reports a malformed policy table or engine parameter.
// Index is -1 when the problem is not tied to a single entry.
type ConfigurationError struct {
	Index  int
	Entry  Entry
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("augment: %s", e.Reason)
	}
	return fmt.Sprintf("augment: entry %d (%s [%g, %g]): %s", e.Index, e.Entry.Op, e.Entry.Min, e.Entry.Max, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidPolicy }

// DispatchError reports an operation name with no capability behind it.
type DispatchError struct {
	Name string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("augment: no transform registered for %q", e.Name)
}

func (e *DispatchError) Unwrap() error { return ErrUnknownOperation }
