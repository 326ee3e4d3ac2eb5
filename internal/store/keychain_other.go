//go:build !darwin

package store

// NewSystemStore returns a MemoryStore on non-darwin platforms. The system
// keychain is only available on macOS; secrets are held in memory and do not
// persist across restarts.
func NewSystemStore() *MemoryStore {
	return NewMemoryStore()
}
