package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrSectionNotReached is returned when navigating to a section beyond
	// the furthest one the user has reached.
	ErrSectionNotReached = errors.New("section not reached yet")

	// ErrBusy is returned when a save or publish is already in flight.
	ErrBusy = errors.New("another save is in progress")

	// ErrNotCompletable is returned when publishing a coupon whose sections
	// are not all complete.
	ErrNotCompletable = errors.New("wizard is not complete")
)

// InvalidSectionError is returned for section identifiers outside the
// wizard's section order.
type InvalidSectionError struct {
	Section Section // Offending value, when a Section was supplied
	Name    string  // Offending identifier, when parsing a string
}

func (e *InvalidSectionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid section %q", e.Name)
	}
	return fmt.Sprintf("invalid section %s", e.Section)
}

// IsInvalidSection reports whether err is (or wraps) an InvalidSectionError
func IsInvalidSection(err error) bool {
	var sErr *InvalidSectionError
	return errors.As(err, &sErr)
}
