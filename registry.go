package lockbox

import (
	"runtime"
	"sync"
	"weak"

	"github.com/benaskins/lockbox/internal/store"
)

// facadeRegistry is the process-wide identity cache: at most one live facade
// per descriptor. Entries hold facades weakly, so a facade is reclaimable
// once callers drop it; re-requesting the same descriptor afterwards builds
// a fresh facade with an empty query cache.
//
// Lookup-or-create is a single critical section so that two concurrent
// requests for the same descriptor can never both construct.
type facadeRegistry struct {
	mu      sync.Mutex
	entries map[string]weak.Pointer[Facade]
}

var registry = &facadeRegistry{entries: make(map[string]weak.Pointer[Facade])}

func (r *facadeRegistry) findOrCreate(id Identifier, cfg Configuration, accessGroup string, st store.Store) *Facade {
	descriptor := newDescriptor(id, cfg, accessGroup)
	key := descriptor.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[key]; ok {
		if f := entry.Value(); f != nil {
			return f
		}
	}

	f := &Facade{
		identifier: id,
		config:     cfg,
		descriptor: descriptor,
		store:      st,
	}
	r.entries[key] = weak.Make(f)
	runtime.AddCleanup(f, r.prune, key)
	return f
}

// prune drops the entry for a collected facade. The liveness check guards
// against removing a fresh facade that reused the key in the meantime.
func (r *facadeRegistry) prune(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[key]; ok && entry.Value() == nil {
		delete(r.entries, key)
	}
}

var (
	processStoreOnce sync.Once
	processStore     store.Store
)

// defaultStore returns the shared process-wide backend: the system keychain
// on macOS, an in-memory store elsewhere.
func defaultStore() store.Store {
	processStoreOnce.Do(func() {
		processStore = store.NewSystemStore()
	})
	return processStore
}
