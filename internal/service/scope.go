package service

import (
	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
)

// visibility turns a caller's resolved scope into query predicates. A nil
// pointer means no predicate on that column.
type visibility struct {
	scope    domain.VisibilityScope
	tenantID *uuid.UUID
	ownerID  *uuid.UUID
}

func visibilityFor(resolver *authz.Resolver, p domain.Principal) visibility {
	v := visibility{scope: resolver.ResolveScope(p.Roles)}

	tenantID, ownerID := p.TenantID, p.AccountID
	switch v.scope {
	case domain.ScopeGlobal:
	case domain.ScopeCorporate:
		v.tenantID = &tenantID
	default:
		v.tenantID = &tenantID
		v.ownerID = &ownerID
	}
	return v
}

// allows reports whether a row with the given tenant and owner is visible
func (v visibility) allows(tenantID, ownerID uuid.UUID) bool {
	if v.tenantID != nil && *v.tenantID != tenantID {
		return false
	}
	if v.ownerID != nil && *v.ownerID != ownerID {
		return false
	}
	return true
}

// DefaultPageSize applies when a caller does not ask for a page size
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
