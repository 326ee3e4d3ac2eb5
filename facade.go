package lockbox

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/benaskins/lockbox/internal/store"
)

var (
	// ErrNotFound is returned when no secret exists for a key.
	ErrNotFound = store.ErrNotFound

	// ErrKeychainUnreadable is returned when the facade's base query cannot
	// be resolved. The failure is permanent for the facade's lifetime: the
	// inputs are immutable, so every operation fails the same way.
	ErrKeychainUnreadable = errors.New("keychain unreadable")

	// ErrInvalidEncoding is returned by String when the stored bytes are not
	// valid UTF-8. Distinct from ErrNotFound: the item exists.
	ErrInvalidEncoding = errors.New("stored value is not valid text")

	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrEmptyValue is returned when Set is given an empty value.
	ErrEmptyValue = errors.New("value must not be empty")
)

// Facade is the identity-stable handle for one secret namespace and policy.
// Obtain one through New and its variants; facades for identical inputs are
// the same instance while any caller still holds a reference.
//
// All operations on one facade are serialized by an exclusive lock; facades
// with distinct descriptors share no state and run concurrently.
type Facade struct {
	identifier Identifier
	config     Configuration
	descriptor serviceDescriptor
	store      store.Store

	mu       sync.Mutex
	query    store.Attributes
	queryErr error
	resolved bool
}

// Identifier returns the facade's namespace identifier.
func (f *Facade) Identifier() Identifier { return f.identifier }

// Accessibility returns the configured accessibility level.
func (f *Facade) Accessibility() Accessibility { return f.config.accessibility }

// Synchronizable reports whether items are cloud-synchronized.
func (f *Facade) Synchronizable() bool { return f.config.cloud }

// AccessGroup returns the shared access group, or "" for a private facade.
func (f *Facade) AccessGroup() string { return f.descriptor.accessGroup }

// Descriptor returns the canonical descriptor string. Two facades are the
// same keychain scope iff their descriptors are equal.
func (f *Facade) Descriptor() string { return f.descriptor.String() }

// Equal reports whether other addresses the same scope as f.
func (f *Facade) Equal(other *Facade) bool {
	return other != nil && f.descriptor == other.descriptor
}

// resolveQueryLocked returns the memoized base query, computing it on first
// use. Both outcomes are cached: a descriptor that cannot yield a query
// never will, so the failure is not re-attempted. Callers hold f.mu.
func (f *Facade) resolveQueryLocked() (store.Attributes, error) {
	if !f.resolved {
		f.query, f.queryErr = f.descriptor.baseQuery()
		f.resolved = true
	}
	if f.queryErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeychainUnreadable, f.queryErr)
	}
	return f.query, nil
}

// CanAccessKeychain probes reachability with a real write+read+cleanup
// cycle. Best-effort: any failure, including an unresolvable base query,
// reads as false. Not a pure read; avoid calling it on hot paths.
func (f *Facade) CanAccessKeychain() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return false
	}
	return f.store.Probe(query)
}

// SetData stores value under key, overwriting any existing value.
func (f *Facade) SetData(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return err
	}
	return f.store.SetItem(query, key, value)
}

// Data returns the value stored under key, or ErrNotFound.
func (f *Facade) Data(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return nil, err
	}
	return f.store.GetItem(query, key)
}

// SetString stores a text value under key.
func (f *Facade) SetString(key, value string) error {
	return f.SetData(key, []byte(value))
}

// String returns the text value stored under key. Returns
// ErrInvalidEncoding if the stored bytes are not valid UTF-8.
func (f *Facade) String(key string) (string, error) {
	data, err := f.Data(key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidEncoding, key)
	}
	return string(data), nil
}

// ContainsKey reports whether a value exists for key. Never fails: every
// outcome other than "found" reads as false.
func (f *Facade) ContainsKey(key string) bool {
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return false
	}
	exists, err := f.store.ItemExists(query, key)
	return err == nil && exists
}

// AllKeys returns every key in the facade's scope, de-duplicated and sorted.
// An empty scope yields an empty slice, not an error.
func (f *Facade) AllKeys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return nil, err
	}

	accounts, err := f.store.EnumerateKeys(query)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	seen := make(map[string]bool, len(accounts))
	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if !seen[a] {
			seen[a] = true
			keys = append(keys, a)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// RemoveKey deletes the value for key. Idempotent: a key that is already
// absent is success.
func (f *Facade) RemoveKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return err
	}
	return f.store.DeleteItem(query, key)
}

// RemoveAllKeys deletes every item in the facade's scope.
func (f *Facade) RemoveAllKeys() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return err
	}
	return f.store.DeleteAll(query)
}

// baseQueryCopy resolves the base query and returns a private copy, for use
// as a migration source.
func (f *Facade) baseQueryCopy() (store.Attributes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	query, err := f.resolveQueryLocked()
	if err != nil {
		return nil, err
	}
	return maps.Clone(query), nil
}
