// Package lockbox provides typed, identity-stable facades over the platform
// keychain.
//
// A facade is addressed by a logical identifier plus a policy: accessibility
// level, local or cloud-synchronized scope, and optionally a shared access
// group. Requesting the same combination twice returns the same *Facade
// while any caller still holds one, so everything sharing a namespace
// observes a single coherent view. All operations on one facade are
// serialized; the underlying keychain work is delegated to a store backend
// (the macOS Keychain on darwin, an in-memory store elsewhere).
//
// Identity is guaranteed only while a strong reference exists: once every
// caller drops a facade it may be reclaimed, and the next request builds a
// fresh one.
package lockbox

// New returns the facade for identifier in the local keychain.
func New(identifier string, accessibility Accessibility) (*Facade, error) {
	return newFacade(identifier, accessibility, false, "")
}

// NewCloudSynchronized returns the facade for identifier in the
// cloud-synchronized keychain.
func NewCloudSynchronized(identifier string, accessibility Accessibility) (*Facade, error) {
	return newFacade(identifier, accessibility, true, "")
}

// NewSharedAccessGroup returns the facade for identifier in a keychain
// access group shared across apps, e.g. "ABCDEFGH.com.example.shared".
func NewSharedAccessGroup(accessGroup, identifier string, accessibility Accessibility) (*Facade, error) {
	if accessGroup == "" {
		return nil, ErrEmptyAccessGroup
	}
	return newFacade(identifier, accessibility, false, accessGroup)
}

// NewCloudSharedAccessGroup returns the facade for identifier in a shared
// access group, cloud-synchronized.
func NewCloudSharedAccessGroup(accessGroup, identifier string, accessibility Accessibility) (*Facade, error) {
	if accessGroup == "" {
		return nil, ErrEmptyAccessGroup
	}
	return newFacade(identifier, accessibility, true, accessGroup)
}

func newFacade(identifier string, accessibility Accessibility, cloud bool, accessGroup string) (*Facade, error) {
	id, err := NewIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	var cfg Configuration
	if cloud {
		cfg, err = CloudConfiguration(accessibility)
	} else {
		cfg, err = LocalConfiguration(accessibility)
	}
	if err != nil {
		return nil, err
	}

	return registry.findOrCreate(id, cfg, accessGroup, defaultStore()), nil
}
