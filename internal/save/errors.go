package save

import (
	"errors"
	"fmt"
)

var (
	ErrVersionTooNew     = errors.New("save version too new")
	ErrMissingSection    = errors.New("missing section")
	ErrUnknownType       = errors.New("unknown type discriminator")
	ErrUnbalancedSection = errors.New("unbalanced section")
	ErrInvalidDocument   = errors.New("invalid save document")
)

// VersionError reports a document written by a newer format than this build reads.
type VersionError struct {
	Found     uint64
	Supported uint64
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("save file version %d is newer than supported version %d", e.Found, e.Supported)
}

func (e *VersionError) Unwrap() error { return ErrVersionTooNew }

// MissingSection returns an error naming the absent section.
func MissingSection(name string) error {
	return fmt.Errorf("%w: save file missing '%s' section", ErrMissingSection, name)
}

// UnknownType returns an error for an unrecognized polymorphic discriminator.
func UnknownType(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownType, field, value)
}
