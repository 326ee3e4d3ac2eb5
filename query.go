package lockbox

import (
	"errors"
	"fmt"

	"github.com/benaskins/lockbox/internal/store"
)

// serviceDescriptor is the canonical value a facade is cached and compared
// by: identifier, scope (local/cloud), access group, and accessibility.
//
// The keychain service attribute deliberately excludes the accessibility
// level. Items written under a since-abandoned level stay addressable by the
// same service, which is what the legacy-accessibility migrations rely on.
type serviceDescriptor struct {
	service        string
	accessGroup    string
	synchronizable bool
	accessibility  Accessibility
}

func newDescriptor(id Identifier, cfg Configuration, accessGroup string) serviceDescriptor {
	return serviceDescriptor{
		service:        id.value,
		accessGroup:    accessGroup,
		synchronizable: cfg.cloud,
		accessibility:  cfg.accessibility,
	}
}

// String renders the canonical cache key. Quoting keeps identifiers and
// access groups from colliding with the separator.
func (d serviceDescriptor) String() string {
	scope := "local"
	if d.synchronizable {
		scope = "cloud"
	}
	return fmt.Sprintf("%q#%q#%s#%s", d.service, d.accessGroup, scope, d.accessibility)
}

// baseQuery materializes the attribute query every operation of a facade
// starts from. Pure; fails only for a descriptor that cannot name a scope.
func (d serviceDescriptor) baseQuery() (store.Attributes, error) {
	if d.service == "" {
		return nil, errors.New("descriptor has no service")
	}
	accessible := d.accessibility.attrValue()
	if accessible == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessibility, d.accessibility)
	}

	query := store.Attributes{
		store.AttrService:        d.service,
		store.AttrSynchronizable: "no",
		store.AttrAccessible:     accessible,
	}
	if d.synchronizable {
		query[store.AttrSynchronizable] = "yes"
	}
	if d.accessGroup != "" {
		query[store.AttrAccessGroup] = d.accessGroup
	}
	return query, nil
}
