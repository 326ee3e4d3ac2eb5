package lockbox

import "fmt"

// Configuration selects the scope a facade's items live in: kept local to
// this device, or synchronized through the cloud keychain. A configuration
// always carries one accessibility level. Value type; comparable.
type Configuration struct {
	cloud         bool
	accessibility Accessibility
}

// LocalConfiguration scopes items to the local keychain.
func LocalConfiguration(a Accessibility) (Configuration, error) {
	if !a.valid() {
		return Configuration{}, fmt.Errorf("%w: %v", ErrInvalidAccessibility, a)
	}
	return Configuration{accessibility: a}, nil
}

// CloudConfiguration scopes items to the cloud-synchronized keychain.
// This-device-only levels contradict synchronization and are rejected.
func CloudConfiguration(a Accessibility) (Configuration, error) {
	if !a.valid() {
		return Configuration{}, fmt.Errorf("%w: %v", ErrInvalidAccessibility, a)
	}
	if a.thisDeviceOnly() {
		return Configuration{}, fmt.Errorf("%w: %v cannot be cloud-synchronized", ErrInvalidAccessibility, a)
	}
	return Configuration{cloud: true, accessibility: a}, nil
}

// Synchronizable reports whether items are cloud-synchronized.
func (c Configuration) Synchronizable() bool {
	return c.cloud
}

// Accessibility returns the configured accessibility level.
func (c Configuration) Accessibility() Accessibility {
	return c.accessibility
}
