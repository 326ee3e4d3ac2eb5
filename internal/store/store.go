// Package store defines the attribute-query contract against the platform
// keychain and provides its backends.
//
// Items are generic passwords addressed by an attribute query:
//   - Service: the logical namespace (facade identifier)
//   - Account: the secret key within that namespace
//   - AccessGroup, Synchronizable, Accessible: scope attributes
//
// On macOS the query is executed against the system Keychain; elsewhere, and
// in unit tests, an in-memory emulation with the same matching semantics is
// used.
package store

import (
	"bytes"
	"errors"
)

// ErrNotFound is returned when no item matches a query.
var ErrNotFound = errors.New("secret not found")

// Attribute keys understood by every backend. Values are strings; the
// Synchronizable attribute uses "yes"/"no".
const (
	AttrService        = "service"
	AttrAccessGroup    = "access-group"
	AttrSynchronizable = "synchronizable"
	AttrAccessible     = "accessible"
)

// Accessible attribute values. The two "always" values are legacy: they can
// appear in queries (migration sources) but are never written for new items.
const (
	AccessibleWhenUnlocked                   = "when-unlocked"
	AccessibleWhenUnlockedThisDeviceOnly     = "when-unlocked-this-device-only"
	AccessibleAfterFirstUnlock               = "after-first-unlock"
	AccessibleAfterFirstUnlockThisDeviceOnly = "after-first-unlock-this-device-only"
	AccessibleWhenPasscodeSetThisDeviceOnly  = "when-passcode-set-this-device-only"
	AccessibleAlways                         = "always"
	AccessibleAlwaysThisDeviceOnly           = "always-this-device-only"
)

// Attributes is an attribute query: which items an operation applies to.
// Keys absent from a query act as wildcards during enumeration.
type Attributes map[string]string

// Item is one matched keychain item with its scope attributes.
type Item struct {
	Account    string
	Data       []byte
	Attributes Attributes
}

// Store is the primitive operation set every backend implements. All
// operations are synchronous; none retries.
type Store interface {
	// Probe checks reachability of the scope described by query with a real
	// write+read+cleanup cycle. Best-effort: never returns an error.
	Probe(query Attributes) bool

	// SetItem inserts or overwrites the item for account within query's scope.
	SetItem(query Attributes, account string, data []byte) error

	// GetItem returns the data for account, or ErrNotFound.
	GetItem(query Attributes, account string) ([]byte, error)

	// ItemExists reports whether an item for account exists, without
	// retrieving its data.
	ItemExists(query Attributes, account string) (bool, error)

	// EnumerateKeys returns the account of every item matching query.
	// Duplicates are possible when the query spans scopes.
	EnumerateKeys(query Attributes) ([]string, error)

	// DeleteItem removes the item for account. Absence is success.
	DeleteItem(query Attributes, account string) error

	// DeleteAll removes every item matching query.
	DeleteAll(query Attributes) error

	// CopyMatching returns every item matching query, with data.
	CopyMatching(query Attributes) ([]Item, error)
}

const canaryAccount = "lockbox.canary"

var canaryValue = []byte("lockbox.canary")

// probe implements the Probe cycle in terms of a backend's own primitives.
func probe(s Store, query Attributes) bool {
	if err := s.SetItem(query, canaryAccount, canaryValue); err != nil {
		return false
	}
	data, err := s.GetItem(query, canaryAccount)
	_ = s.DeleteItem(query, canaryAccount)
	return err == nil && bytes.Equal(data, canaryValue)
}
