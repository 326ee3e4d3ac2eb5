package store

import (
	"maps"
	"sync"
)

// itemIdentity mirrors keychain item identity: two writes collide iff their
// service, access group, synchronizable flag, and account all match. The
// accessible attribute is recorded but is not part of identity.
type itemIdentity struct {
	service        string
	accessGroup    string
	synchronizable string
	account        string
}

type memoryItem struct {
	data  []byte
	attrs Attributes
}

// MemoryStore is an in-memory keychain emulation used for testing and as the
// backend on platforms without a system keychain.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[itemIdentity]memoryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[itemIdentity]memoryItem)}
}

func identity(query Attributes, account string) itemIdentity {
	return itemIdentity{
		service:        query[AttrService],
		accessGroup:    query[AttrAccessGroup],
		synchronizable: query[AttrSynchronizable],
		account:        account,
	}
}

// matches reports whether an item satisfies every attribute present in query.
// Absent query keys are wildcards, as with the real keychain.
func (it memoryItem) matches(query Attributes) bool {
	for k, want := range query {
		if it.attrs[k] != want {
			return false
		}
	}
	return true
}

func (s *MemoryStore) Probe(query Attributes) bool {
	return probe(s, query)
}

func (s *MemoryStore) SetItem(query Attributes, account string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[identity(query, account)] = memoryItem{
		data:  append([]byte(nil), data...),
		attrs: maps.Clone(query),
	}
	return nil
}

func (s *MemoryStore) GetItem(query Attributes, account string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[identity(query, account)]
	if !ok || !it.matches(query) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), it.data...), nil
}

func (s *MemoryStore) ItemExists(query Attributes, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[identity(query, account)]
	return ok && it.matches(query), nil
}

func (s *MemoryStore) EnumerateKeys(query Attributes) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []string
	for id, it := range s.items {
		if it.matches(query) {
			accounts = append(accounts, id.account)
		}
	}
	return accounts, nil
}

func (s *MemoryStore) DeleteItem(query Attributes, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := identity(query, account)
	if it, ok := s.items[id]; ok && it.matches(query) {
		delete(s.items, id)
	}
	return nil
}

func (s *MemoryStore) DeleteAll(query Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.matches(query) {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *MemoryStore) CopyMatching(query Attributes) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Item
	for id, it := range s.items {
		if it.matches(query) {
			result = append(result, Item{
				Account:    id.account,
				Data:       append([]byte(nil), it.data...),
				Attributes: maps.Clone(it.attrs),
			})
		}
	}
	return result, nil
}
