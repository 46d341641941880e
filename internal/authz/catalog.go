// Package authz resolves a caller's effective permissions and visibility
// scope from the roles assigned to its account.
package authz

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andressep95/realty-core/internal/domain"
)

// CatalogVersion identifies the built-in role matrix
const CatalogVersion = "2024.1"

// PermissionSet is an unordered set of permissions
type PermissionSet map[domain.Permission]struct{}

// NewPermissionSet builds a set from a list of permissions
func NewPermissionSet(perms ...domain.Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership
func (s PermissionSet) Has(p domain.Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the permissions in lexical order
func (s PermissionSet) Sorted() []domain.Permission {
	out := make([]domain.Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoleDefinition is one row of the role matrix
type RoleDefinition struct {
	Permissions []domain.Permission
	Scope       domain.VisibilityScope
}

type catalogEntry struct {
	permissions []domain.Permission
	scope       domain.VisibilityScope
}

// Catalog is an immutable, versioned role matrix. It is built once at startup
// and has no mutation path; lookups hand out copies.
type Catalog struct {
	version string
	entries map[domain.Role]catalogEntry
}

// NewCatalog copies defs into a read-only catalog
func NewCatalog(version string, defs map[domain.Role]RoleDefinition) *Catalog {
	entries := make(map[domain.Role]catalogEntry, len(defs))
	for role, def := range defs {
		perms := make([]domain.Permission, len(def.Permissions))
		copy(perms, def.Permissions)
		entries[role] = catalogEntry{permissions: perms, scope: def.Scope}
	}
	return &Catalog{version: version, entries: entries}
}

// Version returns the catalog version
func (c *Catalog) Version() string {
	return c.version
}

// Lookup returns the permission set and scope for a role. ok is false for
// roles without an entry.
func (c *Catalog) Lookup(role domain.Role) (PermissionSet, domain.VisibilityScope, bool) {
	entry, ok := c.entries[role]
	if !ok {
		return nil, "", false
	}
	return NewPermissionSet(entry.permissions...), entry.scope, true
}

// Validate checks that every role in roles has a non-empty permission set and
// a known scope.
func (c *Catalog) Validate(roles []domain.Role) error {
	var errs []error
	for _, role := range roles {
		entry, ok := c.entries[role]
		if !ok {
			errs = append(errs, fmt.Errorf("role %s has no catalog entry", role))
			continue
		}
		if len(entry.permissions) == 0 {
			errs = append(errs, fmt.Errorf("role %s has an empty permission set", role))
		}
		if entry.scope.Rank() == 0 {
			errs = append(errs, fmt.Errorf("role %s has unknown scope %q", role, entry.scope))
		}
	}
	return errors.Join(errs...)
}

// DefaultCatalog returns the built-in role matrix
func DefaultCatalog() *Catalog {
	return NewCatalog(CatalogVersion, map[domain.Role]RoleDefinition{
		domain.RoleWebsiteAdmin: {
			Scope: domain.ScopeGlobal,
			Permissions: []domain.Permission{
				domain.PermManageAllListings,
				domain.PermViewAllLeads,
				domain.PermManageAccounts,
				domain.PermManageContent,
				domain.PermViewCorporateReports,
				domain.PermViewOwnReports,
				domain.PermViewPublicListings,
			},
		},
		domain.RoleSubAdmin: {
			Scope: domain.ScopeGlobal,
			Permissions: []domain.Permission{
				domain.PermManageAllListings,
				domain.PermViewAllLeads,
				domain.PermManageContent,
				domain.PermViewPublicListings,
			},
		},
		domain.RoleCorporateOwner: {
			Scope: domain.ScopeCorporate,
			Permissions: []domain.Permission{
				domain.PermManageCorporateListings,
				domain.PermManageOwnListings,
				domain.PermManageCorporateLeads,
				domain.PermManageOwnLeads,
				domain.PermManageEmployees,
				domain.PermViewCorporateReports,
				domain.PermViewOwnReports,
				domain.PermViewPublicListings,
			},
		},
		domain.RoleCorporateAgent: {
			Scope: domain.ScopeSelf,
			Permissions: []domain.Permission{
				domain.PermManageOwnListings,
				domain.PermManageOwnLeads,
				domain.PermViewOwnReports,
				domain.PermViewPublicListings,
			},
		},
		domain.RoleIndividualAgent: {
			Scope: domain.ScopeSelf,
			Permissions: []domain.Permission{
				domain.PermManageOwnListings,
				domain.PermManageOwnLeads,
				domain.PermViewOwnReports,
				domain.PermViewPublicListings,
			},
		},
		domain.RoleSeller: {
			Scope: domain.ScopeSelf,
			Permissions: []domain.Permission{
				domain.PermViewPublicListings,
				domain.PermSubmitInquiries,
				domain.PermManageFavorites,
			},
		},
		domain.RoleBuyer: {
			Scope: domain.ScopeSelf,
			Permissions: []domain.Permission{
				domain.PermViewPublicListings,
				domain.PermSubmitInquiries,
				domain.PermManageFavorites,
			},
		},
	})
}
