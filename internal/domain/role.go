package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
)

// Role is an identity label assigned to an account. The set of valid roles is
// closed; anything else is treated as carrying no permissions.
type Role string

const (
	RoleWebsiteAdmin    Role = "WEBSITE_ADMIN"
	RoleSubAdmin        Role = "SUB_ADMIN"
	RoleCorporateOwner  Role = "CORPORATE_OWNER"
	RoleCorporateAgent  Role = "CORPORATE_AGENT"
	RoleIndividualAgent Role = "INDIVIDUAL_AGENT"
	RoleSeller          Role = "SELLER"
	RoleBuyer           Role = "BUYER"
)

// AllRoles returns every role of the closed enumeration in a stable order.
func AllRoles() []Role {
	return []Role{
		RoleWebsiteAdmin,
		RoleSubAdmin,
		RoleCorporateOwner,
		RoleCorporateAgent,
		RoleIndividualAgent,
		RoleSeller,
		RoleBuyer,
	}
}

// Permission is a fine-grained action+scope identifier
type Permission string

const (
	PermManageAllListings       Permission = "manage_all_listings"
	PermManageCorporateListings Permission = "manage_corporate_listings"
	PermManageOwnListings       Permission = "manage_own_listings"
	PermViewAllLeads            Permission = "view_all_leads"
	PermManageCorporateLeads    Permission = "manage_corporate_leads"
	PermManageOwnLeads          Permission = "manage_own_leads"
	PermManageEmployees         Permission = "manage_employees"
	PermViewCorporateReports    Permission = "view_corporate_reports"
	PermViewOwnReports          Permission = "view_own_reports"
	PermManageAccounts          Permission = "manage_accounts"
	PermManageContent           Permission = "manage_content"
	PermViewPublicListings      Permission = "view_public_listings"
	PermSubmitInquiries         Permission = "submit_inquiries"
	PermManageFavorites         Permission = "manage_favorites"
)

// VisibilityScope is the breadth of data a caller's queries are filtered to.
type VisibilityScope string

const (
	ScopeGlobal    VisibilityScope = "global"
	ScopeCorporate VisibilityScope = "corporate"
	ScopeSelf      VisibilityScope = "self"
)

// Rank orders scopes by privilege. Unknown scopes rank below self.
func (s VisibilityScope) Rank() int {
	switch s {
	case ScopeGlobal:
		return 3
	case ScopeCorporate:
		return 2
	case ScopeSelf:
		return 1
	default:
		return 0
	}
}

// RoleList is the set of roles stored on an account (TEXT[] column)
type RoleList []Role

// Strings returns the role names, used for token claims
func (r RoleList) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

// RolesFromStrings converts raw role names, keeping unknown values as-is so
// the resolver can fail closed on them.
func RolesFromStrings(names []string) RoleList {
	out := make(RoleList, len(names))
	for i, name := range names {
		out[i] = Role(name)
	}
	return out
}

// Scan implements sql.Scanner
func (r *RoleList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("failed to scan roles: %w", err)
	}
	*r = RolesFromStrings(arr)
	return nil
}

// Value implements driver.Valuer
func (r RoleList) Value() (driver.Value, error) {
	return pq.StringArray(r.Strings()).Value()
}
