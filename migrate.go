package lockbox

import (
	"errors"
	"fmt"
	"maps"

	"github.com/benaskins/lockbox/internal/store"
)

// Query is an attribute query addressing a migration source scope. Keys are
// the keychain attribute names (service, access-group, synchronizable,
// accessible); keys left out act as wildcards.
type Query map[string]string

var (
	// ErrMigrationSourceUnreadable: the source scope could not be enumerated.
	ErrMigrationSourceUnreadable = errors.New("could not read source keychain")

	// ErrMigrationDestinationUnreadable: the destination facade's base query
	// could not be resolved.
	ErrMigrationDestinationUnreadable = errors.New("could not read destination keychain")

	// ErrMigrationDuplicateKeys: the source scope holds the same key more
	// than once, or a source key already exists in the destination scope.
	// Ambiguous migrations are rejected, not tie-broken or overwritten.
	ErrMigrationDuplicateKeys = errors.New("duplicate keys across migration scopes")

	// ErrMigrationRemovalFailed: every item was copied, but removing the
	// originals failed. The destination copy is kept.
	ErrMigrationRemovalFailed = errors.New("migration copied all items but could not remove source items")
)

// Migrate copies every item matching source into the facade's scope, then,
// if removeOnCompletion is set, deletes the originals.
//
// The destination is never left partially populated by a rejected migration:
// all source items are read and validated before the first destination
// write, and a source key that already exists in the destination fails the
// whole migration with ErrMigrationDuplicateKeys instead of overwriting. The keychain offers no transactional primitive, so if a destination
// write fails after earlier writes committed, the error is returned and the
// already-written items remain; there is no rollback.
func (f *Facade) Migrate(source Query, removeOnCompletion bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.migrateLocked(store.Attributes(source), removeOnCompletion)
}

// MigrateFrom migrates every item in source's scope into f's scope. Defined
// in terms of Migrate using source's resolved base query. Migrating a facade
// into itself is a no-op.
func (f *Facade) MigrateFrom(source *Facade, removeOnCompletion bool) error {
	if source == nil {
		return fmt.Errorf("%w: no source facade", ErrMigrationSourceUnreadable)
	}
	if f.Equal(source) {
		return nil
	}

	sourceQuery, err := source.baseQueryCopy()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationSourceUnreadable, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.migrateLocked(sourceQuery, removeOnCompletion)
}

// MigrateFromAlwaysAccessible migrates items written under the retired
// "always" accessibility level into this facade's scope.
func (f *Facade) MigrateFromAlwaysAccessible(removeOnCompletion bool) error {
	return f.migrateFromLegacy(accessibleAlways, removeOnCompletion)
}

// MigrateFromAlwaysAccessibleThisDeviceOnly migrates items written under the
// retired "always, this device only" accessibility level.
func (f *Facade) MigrateFromAlwaysAccessibleThisDeviceOnly(removeOnCompletion bool) error {
	return f.migrateFromLegacy(accessibleAlwaysThisDeviceOnly, removeOnCompletion)
}

// migrateFromLegacy runs Migrate with a source identical to the facade's own
// base query except for the legacy accessible attribute value.
func (f *Facade) migrateFromLegacy(legacy Accessibility, removeOnCompletion bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	query, err := f.resolveQueryLocked()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationSourceUnreadable, err)
	}
	source := maps.Clone(query)
	source[store.AttrAccessible] = legacy.attrValue()
	return f.migrateLocked(source, removeOnCompletion)
}

// migrateLocked is the migration protocol body. Callers hold f.mu.
func (f *Facade) migrateLocked(source store.Attributes, removeOnCompletion bool) error {
	destination, err := f.resolveQueryLocked()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationDestinationUnreadable, err)
	}

	items, err := f.store.CopyMatching(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationSourceUnreadable, err)
	}

	// Stage and validate everything before touching the destination. A key
	// that already exists in the destination aborts the migration: a
	// caller's live secret is never overwritten by a copy.
	staged := make([]store.Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Account == "" {
			return fmt.Errorf("%w: item with empty key", ErrMigrationSourceUnreadable)
		}
		if len(item.Data) == 0 {
			return fmt.Errorf("%w: item %q has no data", ErrMigrationSourceUnreadable, item.Account)
		}
		if seen[item.Account] {
			return fmt.Errorf("%w: %q appears twice in source", ErrMigrationDuplicateKeys, item.Account)
		}
		exists, err := f.store.ItemExists(destination, item.Account)
		if err != nil {
			return fmt.Errorf("checking destination for %q: %w", item.Account, err)
		}
		if exists {
			return fmt.Errorf("%w: %q already exists in destination", ErrMigrationDuplicateKeys, item.Account)
		}
		seen[item.Account] = true
		staged = append(staged, item)
	}

	for _, item := range staged {
		if err := f.store.SetItem(destination, item.Account, item.Data); err != nil {
			// No rollback of earlier writes; see the method comment.
			return fmt.Errorf("migrating %q into destination keychain: %w", item.Account, err)
		}
	}

	if !removeOnCompletion {
		return nil
	}
	for _, item := range staged {
		if err := f.store.DeleteItem(source, item.Account); err != nil {
			return fmt.Errorf("%w: %v", ErrMigrationRemovalFailed, err)
		}
	}
	return nil
}
