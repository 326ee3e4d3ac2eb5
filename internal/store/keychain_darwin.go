//go:build darwin

package store

import (
	"errors"
	"fmt"
	"maps"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemStore executes attribute queries against the macOS Keychain.
// Items are generic passwords; the label makes them identifiable in
// Keychain Access.app.
type SystemStore struct{}

// NewSystemStore creates a Keychain-backed store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

func toAccessible(v string) gokeychain.Accessible {
	switch v {
	case AccessibleWhenUnlocked:
		return gokeychain.AccessibleWhenUnlocked
	case AccessibleWhenUnlockedThisDeviceOnly:
		return gokeychain.AccessibleWhenUnlockedThisDeviceOnly
	case AccessibleAfterFirstUnlock:
		return gokeychain.AccessibleAfterFirstUnlock
	case AccessibleAfterFirstUnlockThisDeviceOnly:
		return gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly
	case AccessibleWhenPasscodeSetThisDeviceOnly:
		return gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly
	case AccessibleAlways:
		return gokeychain.AccessibleAlways
	case AccessibleAlwaysThisDeviceOnly:
		// The constant name carries an upstream typo.
		return gokeychain.AccessibleAccessibleAlwaysThisDeviceOnly
	default:
		return gokeychain.AccessibleDefault
	}
}

// queryItem translates an attribute query into a go-keychain item.
func queryItem(query Attributes) gokeychain.Item {
	item := gokeychain.NewItem()
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	if v, ok := query[AttrService]; ok {
		item.SetService(v)
	}
	if v, ok := query[AttrAccessGroup]; ok {
		item.SetAccessGroup(v)
	}
	switch query[AttrSynchronizable] {
	case "yes":
		item.SetSynchronizable(gokeychain.SynchronizableYes)
	case "no":
		item.SetSynchronizable(gokeychain.SynchronizableNo)
	default:
		item.SetSynchronizable(gokeychain.SynchronizableAny)
	}
	if v, ok := query[AttrAccessible]; ok {
		item.SetAccessible(toAccessible(v))
	}
	return item
}

func (s *SystemStore) Probe(query Attributes) bool {
	return probe(s, query)
}

// SetItem overwrites by delete-then-add: SecItemAdd refuses duplicates and
// SecItemUpdate cannot change scope attributes. The pre-delete drops the
// accessible attribute because item identity excludes it; without this, an
// add over an item stored under a different accessibility level would fail
// as a duplicate.
func (s *SystemStore) SetItem(query Attributes, account string, data []byte) error {
	deleteQuery := maps.Clone(query)
	delete(deleteQuery, AttrAccessible)
	if err := s.DeleteItem(deleteQuery, account); err != nil {
		return err
	}

	item := queryItem(query)
	item.SetAccount(account)
	item.SetLabel(fmt.Sprintf("lockbox: %s", account))
	item.SetData(data)

	if err := gokeychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add %q: %w", account, err)
	}
	return nil
}

func (s *SystemStore) GetItem(query Attributes, account string) ([]byte, error) {
	item := queryItem(query)
	item.SetAccount(account)
	item.SetMatchLimit(gokeychain.MatchLimitOne)
	item.SetReturnData(true)

	results, err := gokeychain.QueryItem(item)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return nil, fmt.Errorf("keychain get %q: %w", account, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	return results[0].Data, nil
}

func (s *SystemStore) ItemExists(query Attributes, account string) (bool, error) {
	item := queryItem(query)
	item.SetAccount(account)
	item.SetMatchLimit(gokeychain.MatchLimitOne)
	item.SetReturnAttributes(true)

	results, err := gokeychain.QueryItem(item)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("keychain lookup %q: %w", account, err)
	}
	return len(results) > 0, nil
}

func (s *SystemStore) EnumerateKeys(query Attributes) ([]string, error) {
	item := queryItem(query)
	item.SetMatchLimit(gokeychain.MatchLimitAll)
	item.SetReturnAttributes(true)

	results, err := gokeychain.QueryItem(item)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain list: %w", err)
	}
	accounts := make([]string, 0, len(results))
	for _, r := range results {
		accounts = append(accounts, r.Account)
	}
	return accounts, nil
}

func (s *SystemStore) DeleteItem(query Attributes, account string) error {
	item := queryItem(query)
	item.SetAccount(account)

	err := gokeychain.DeleteItem(item)
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete %q: %w", account, err)
	}
	return nil
}

func (s *SystemStore) DeleteAll(query Attributes) error {
	err := gokeychain.DeleteItem(queryItem(query))
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete all: %w", err)
	}
	return nil
}

func (s *SystemStore) CopyMatching(query Attributes) ([]Item, error) {
	item := queryItem(query)
	item.SetMatchLimit(gokeychain.MatchLimitAll)
	item.SetReturnAttributes(true)
	item.SetReturnData(true)

	results, err := gokeychain.QueryItem(item)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain copy matching: %w", err)
	}

	items := make([]Item, 0, len(results))
	for _, r := range results {
		attrs := Attributes{AttrService: r.Service}
		if r.AccessGroup != "" {
			attrs[AttrAccessGroup] = r.AccessGroup
		}
		items = append(items, Item{
			Account:    r.Account,
			Data:       r.Data,
			Attributes: attrs,
		})
	}
	return items, nil
}
