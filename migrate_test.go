package lockbox

import (
	"errors"
	"testing"

	"github.com/benaskins/lockbox/internal/store"
)

func TestMigrateFromRemovesSource(t *testing.T) {
	st := store.NewMemoryStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	source.SetString("a", "value-a")
	source.SetString("b", "value-b")

	if err := dest.MigrateFrom(source, true); err != nil {
		t.Fatalf("MigrateFrom: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		val, err := dest.String(k)
		if err != nil {
			t.Fatalf("destination missing %q: %v", k, err)
		}
		if val != "value-"+k {
			t.Errorf("destination %q = %q", k, val)
		}
		if source.ContainsKey(k) {
			t.Errorf("source still contains %q after removal", k)
		}
	}
}

func TestMigrateFromKeepsSource(t *testing.T) {
	st := store.NewMemoryStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	source.SetString("a", "value-a")
	source.SetString("b", "value-b")

	if err := dest.MigrateFrom(source, false); err != nil {
		t.Fatalf("MigrateFrom: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if !dest.ContainsKey(k) {
			t.Errorf("destination missing %q", k)
		}
		if !source.ContainsKey(k) {
			t.Errorf("source lost %q despite removeOnCompletion=false", k)
		}
	}
}

func TestMigrateDuplicateKeysLeavesDestinationUntouched(t *testing.T) {
	st := store.NewMemoryStore()
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	// The same account in two source scopes makes the migration ambiguous.
	st.SetItem(store.Attributes{
		store.AttrService:        "dup-src",
		store.AttrSynchronizable: "no",
		store.AttrAccessible:     store.AccessibleWhenUnlocked,
	}, "conflicted", []byte("one"))
	st.SetItem(store.Attributes{
		store.AttrService:        "dup-src",
		store.AttrSynchronizable: "yes",
		store.AttrAccessible:     store.AccessibleWhenUnlocked,
	}, "conflicted", []byte("two"))

	err := dest.Migrate(Query{store.AttrService: "dup-src"}, false)
	if !errors.Is(err, ErrMigrationDuplicateKeys) {
		t.Fatalf("expected ErrMigrationDuplicateKeys, got %v", err)
	}

	keys, err := dest.AllKeys()
	if err != nil {
		t.Fatalf("AllKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("destination modified by rejected migration: %v", keys)
	}
}

func TestMigrateRejectsKeyAlreadyInDestination(t *testing.T) {
	st := store.NewMemoryStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	dest.SetString("shared-key", "precious-destination-value")
	source.SetString("shared-key", "source-value")
	source.SetString("other", "value")

	err := dest.MigrateFrom(source, true)
	if !errors.Is(err, ErrMigrationDuplicateKeys) {
		t.Fatalf("expected ErrMigrationDuplicateKeys, got %v", err)
	}

	val, err := dest.String("shared-key")
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if val != "precious-destination-value" {
		t.Errorf("destination value overwritten: got %q", val)
	}

	// The rejected migration must not have copied or removed anything.
	if dest.ContainsKey("other") {
		t.Error("rejected migration copied an item into the destination")
	}
	for _, k := range []string{"shared-key", "other"} {
		if !source.ContainsKey(k) {
			t.Errorf("rejected migration removed source key %q", k)
		}
	}
}

func TestMigrateEmptySource(t *testing.T) {
	st := store.NewMemoryStore()
	dest := testFacade(t, t.Name(), WhenUnlocked, st)

	if err := dest.Migrate(Query{store.AttrService: "nothing-here"}, true); err != nil {
		t.Errorf("migrating an empty source should succeed, got %v", err)
	}
}

func TestMigrateIntoSelfIsNoOp(t *testing.T) {
	st := store.NewMemoryStore()
	f := testFacade(t, t.Name(), WhenUnlocked, st)

	f.SetString("keep", "me")
	if err := f.MigrateFrom(f, true); err != nil {
		t.Fatalf("MigrateFrom self: %v", err)
	}
	if !f.ContainsKey("keep") {
		t.Error("self-migration lost data")
	}
}

func TestMigrateFromNilSource(t *testing.T) {
	f := testFacade(t, t.Name(), WhenUnlocked, store.NewMemoryStore())

	if err := f.MigrateFrom(nil, false); !errors.Is(err, ErrMigrationSourceUnreadable) {
		t.Errorf("expected ErrMigrationSourceUnreadable, got %v", err)
	}
}

// faultStore wraps MemoryStore with injectable failures for exercising the
// migration error paths. The fields are set only after test data is seeded.
type faultStore struct {
	*store.MemoryStore
	copyErr      error
	deleteErr    error
	setFailAfter int // fail SetItem after this many successful writes; -1 disables
	sets         int
}

func newFaultStore() *faultStore {
	return &faultStore{MemoryStore: store.NewMemoryStore(), setFailAfter: -1}
}

func (s *faultStore) CopyMatching(query store.Attributes) ([]store.Item, error) {
	if s.copyErr != nil {
		return nil, s.copyErr
	}
	return s.MemoryStore.CopyMatching(query)
}

func (s *faultStore) DeleteItem(query store.Attributes, account string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.DeleteItem(query, account)
}

func (s *faultStore) SetItem(query store.Attributes, account string, data []byte) error {
	if s.setFailAfter >= 0 && s.sets >= s.setFailAfter {
		return errors.New("keychain write refused")
	}
	s.sets++
	return s.MemoryStore.SetItem(query, account, data)
}

func TestMigrateSourceEnumerationFails(t *testing.T) {
	st := newFaultStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	source.SetString("a", "value-a")
	st.copyErr = errors.New("keychain locked")

	err := dest.MigrateFrom(source, true)
	if !errors.Is(err, ErrMigrationSourceUnreadable) {
		t.Fatalf("expected ErrMigrationSourceUnreadable, got %v", err)
	}

	keys, err := dest.AllKeys()
	if err != nil {
		t.Fatalf("AllKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("destination modified by failed migration: %v", keys)
	}
}

func TestMigrateRemovalFailureKeepsDestination(t *testing.T) {
	st := newFaultStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	source.SetString("a", "value-a")
	source.SetString("b", "value-b")
	st.deleteErr = errors.New("keychain locked")

	err := dest.MigrateFrom(source, true)
	if !errors.Is(err, ErrMigrationRemovalFailed) {
		t.Fatalf("expected ErrMigrationRemovalFailed, got %v", err)
	}

	// The copy succeeded; it is kept despite the removal failure.
	for _, k := range []string{"a", "b"} {
		if !dest.ContainsKey(k) {
			t.Errorf("destination lost %q after removal failure", k)
		}
		if !source.ContainsKey(k) {
			t.Errorf("source lost %q despite failed removal", k)
		}
	}
}

func TestMigratePartialCommitHasNoRollback(t *testing.T) {
	st := newFaultStore()
	source := testFacade(t, t.Name()+"-source", WhenUnlocked, st)
	dest := testFacade(t, t.Name()+"-dest", WhenUnlocked, st)

	source.SetString("a", "value-a")
	source.SetString("b", "value-b")
	st.sets = 0
	st.setFailAfter = 1

	err := dest.MigrateFrom(source, true)
	if err == nil {
		t.Fatal("expected error from failing destination write")
	}
	for _, sentinel := range []error{
		ErrMigrationSourceUnreadable,
		ErrMigrationDestinationUnreadable,
		ErrMigrationDuplicateKeys,
		ErrMigrationRemovalFailed,
	} {
		if errors.Is(err, sentinel) {
			t.Errorf("partial commit reported as %v, want a plain store error", sentinel)
		}
	}

	// The write that committed before the failure stays: no rollback.
	keys, listErr := dest.AllKeys()
	if listErr != nil {
		t.Fatalf("AllKeys: %v", listErr)
	}
	if len(keys) != 1 {
		t.Errorf("expected exactly the committed write in destination, got %v", keys)
	}

	// Nothing was removed from the source.
	for _, k := range []string{"a", "b"} {
		if !source.ContainsKey(k) {
			t.Errorf("source lost %q during aborted migration", k)
		}
	}
}

func TestMigrateFromAlwaysAccessible(t *testing.T) {
	st := store.NewMemoryStore()
	f := testFacade(t, t.Name(), WhenUnlocked, st)

	// An item written in the era of the retired "always" level: same service
	// and scope, legacy accessible attribute.
	st.SetItem(store.Attributes{
		store.AttrService:        t.Name(),
		store.AttrSynchronizable: "no",
		store.AttrAccessible:     store.AccessibleAlways,
	}, "old-secret", []byte("legacy"))

	if f.ContainsKey("old-secret") {
		t.Fatal("legacy item must not be visible before migration")
	}

	if err := f.MigrateFromAlwaysAccessible(true); err != nil {
		t.Fatalf("MigrateFromAlwaysAccessible: %v", err)
	}

	val, err := f.String("old-secret")
	if err != nil {
		t.Fatalf("String after migration: %v", err)
	}
	if val != "legacy" {
		t.Errorf("expected 'legacy', got %q", val)
	}

	// The item now lives under the facade's accessibility level only.
	items, err := st.CopyMatching(store.Attributes{
		store.AttrService:    t.Name(),
		store.AttrAccessible: store.AccessibleAlways,
	})
	if err != nil {
		t.Fatalf("CopyMatching: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("legacy-scoped item still present: %v", items)
	}
}
