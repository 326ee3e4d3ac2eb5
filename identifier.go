package lockbox

import (
	"errors"
	"strings"
)

// ErrEmptyIdentifier is returned when a facade is requested with an empty or
// all-whitespace identifier.
var ErrEmptyIdentifier = errors.New("identifier must not be empty")

// ErrEmptyAccessGroup is returned when a shared-access-group facade is
// requested without an access group.
var ErrEmptyAccessGroup = errors.New("access group must not be empty")

// Identifier names a logical secret namespace, e.g. "com.example.auth".
// Immutable once constructed.
type Identifier struct {
	value string
}

// NewIdentifier validates and wraps an identifier string.
func NewIdentifier(value string) (Identifier, error) {
	if strings.TrimSpace(value) == "" {
		return Identifier{}, ErrEmptyIdentifier
	}
	return Identifier{value: value}, nil
}

func (id Identifier) String() string {
	return id.value
}
