package authz

import (
	"github.com/andressep95/realty-core/internal/domain"
)

// Resolver answers permission and scope questions for a set of roles. It
// fails closed: roles without a catalog entry contribute no permissions and
// the self scope.
type Resolver struct {
	catalog *Catalog
}

func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Catalog returns the catalog backing this resolver
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// ResolvePermissions returns the union of the permission sets of roles
func (r *Resolver) ResolvePermissions(roles []domain.Role) PermissionSet {
	out := PermissionSet{}
	for _, role := range roles {
		perms, _, ok := r.catalog.Lookup(role)
		if !ok {
			continue
		}
		for p := range perms {
			out[p] = struct{}{}
		}
	}
	return out
}

// ResolveScope returns the highest-ranked scope among roles, defaulting to
// self when no role is recognised.
func (r *Resolver) ResolveScope(roles []domain.Role) domain.VisibilityScope {
	best := domain.ScopeSelf
	for _, role := range roles {
		_, scope, ok := r.catalog.Lookup(role)
		if !ok {
			continue
		}
		if scope.Rank() > best.Rank() {
			best = scope
		}
	}
	return best
}

// HasPermission reports whether roles grant perm
func (r *Resolver) HasPermission(roles []domain.Role, perm domain.Permission) bool {
	return r.ResolvePermissions(roles).Has(perm)
}

// HasAnyPermission reports whether roles grant at least one of perms
func (r *Resolver) HasAnyPermission(roles []domain.Role, perms ...domain.Permission) bool {
	set := r.ResolvePermissions(roles)
	for _, p := range perms {
		if set.Has(p) {
			return true
		}
	}
	return false
}
