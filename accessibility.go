package lockbox

import (
	"errors"
	"fmt"

	"github.com/benaskins/lockbox/internal/store"
)

// ErrInvalidAccessibility is returned when an accessibility level is unknown
// or not allowed for the requested configuration.
var ErrInvalidAccessibility = errors.New("invalid accessibility")

// Accessibility describes when a stored secret may be read.
type Accessibility int

const (
	// WhenUnlocked: readable only while the device is unlocked.
	WhenUnlocked Accessibility = iota + 1
	// WhenUnlockedThisDeviceOnly: as WhenUnlocked, never migrated to a new
	// device or synced.
	WhenUnlockedThisDeviceOnly
	// AfterFirstUnlock: readable any time after the first unlock since boot.
	AfterFirstUnlock
	// AfterFirstUnlockThisDeviceOnly: as AfterFirstUnlock, this device only.
	AfterFirstUnlockThisDeviceOnly
	// WhenPasscodeSetThisDeviceOnly: readable only while unlocked, and only
	// if a passcode is set.
	WhenPasscodeSetThisDeviceOnly

	// Legacy levels, no longer offered for new items. They exist solely as
	// migration sources; see Facade.MigrateFromAlwaysAccessible.
	accessibleAlways
	accessibleAlwaysThisDeviceOnly
)

func (a Accessibility) valid() bool {
	return a >= WhenUnlocked && a <= WhenPasscodeSetThisDeviceOnly
}

func (a Accessibility) thisDeviceOnly() bool {
	switch a {
	case WhenUnlockedThisDeviceOnly, AfterFirstUnlockThisDeviceOnly,
		WhenPasscodeSetThisDeviceOnly, accessibleAlwaysThisDeviceOnly:
		return true
	}
	return false
}

// attrValue is the value stored in the keychain accessible attribute.
func (a Accessibility) attrValue() string {
	switch a {
	case WhenUnlocked:
		return store.AccessibleWhenUnlocked
	case WhenUnlockedThisDeviceOnly:
		return store.AccessibleWhenUnlockedThisDeviceOnly
	case AfterFirstUnlock:
		return store.AccessibleAfterFirstUnlock
	case AfterFirstUnlockThisDeviceOnly:
		return store.AccessibleAfterFirstUnlockThisDeviceOnly
	case WhenPasscodeSetThisDeviceOnly:
		return store.AccessibleWhenPasscodeSetThisDeviceOnly
	case accessibleAlways:
		return store.AccessibleAlways
	case accessibleAlwaysThisDeviceOnly:
		return store.AccessibleAlwaysThisDeviceOnly
	default:
		return ""
	}
}

func (a Accessibility) String() string {
	if v := a.attrValue(); v != "" {
		return v
	}
	return fmt.Sprintf("accessibility(%d)", int(a))
}

// ParseAccessibility maps the textual form back to a level. Legacy "always"
// values are not parseable; they cannot be selected for new facades.
func ParseAccessibility(s string) (Accessibility, error) {
	for a := WhenUnlocked; a <= WhenPasscodeSetThisDeviceOnly; a++ {
		if a.attrValue() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAccessibility, s)
}
