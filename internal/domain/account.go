package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType distinguishes the kinds of principals on the platform
type AccountType string

const (
	AccountTypeCustomer         AccountType = "customer"
	AccountTypeIndividualBroker AccountType = "individual_broker"
	AccountTypeCorporateCompany AccountType = "corporate_company"
	AccountTypePlatformAdmin    AccountType = "platform_admin"
)

// IsValid reports whether t belongs to the closed set of account types
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCustomer, AccountTypeIndividualBroker, AccountTypeCorporateCompany, AccountTypePlatformAdmin:
		return true
	}
	return false
}

// Resource is a quota-governed entity kind
type Resource string

const (
	ResourceListing  Resource = "active listing"
	ResourceCustomer Resource = "customer"
	ResourceEmployee Resource = "employee"
)

// Default ceilings assigned at onboarding
const (
	IndividualMaxActiveListings = 30
	IndividualMaxCustomers      = 100
	CompanyMaxEmployees         = 50
	EmployeeMaxActiveListings   = 100
	EmployeeMaxCustomers        = 500
)

// Quota holds the ceiling and running counter for every governed resource.
// current* <= max* holds for every pair unless Unlimited is set.
type Quota struct {
	Unlimited               bool `json:"unlimited" db:"quota_unlimited"`
	MaxActiveListings       int  `json:"max_active_listings" db:"max_active_listings"`
	CurrentActiveListings   int  `json:"current_active_listings" db:"current_active_listings"`
	MaxCustomers            int  `json:"max_customers" db:"max_customers"`
	CurrentCustomers        int  `json:"current_customers" db:"current_customers"`
	MaxEmployees            int  `json:"max_employees" db:"max_employees"`
	CurrentEmployees        int  `json:"current_employees" db:"current_employees"`
	MaxListingsPerEmployee  int  `json:"max_listings_per_employee" db:"max_listings_per_employee"`
	MaxCustomersPerEmployee int  `json:"max_customers_per_employee" db:"max_customers_per_employee"`
}

// Ceiling returns the configured maximum for a resource
func (q Quota) Ceiling(r Resource) int {
	switch r {
	case ResourceListing:
		return q.MaxActiveListings
	case ResourceCustomer:
		return q.MaxCustomers
	case ResourceEmployee:
		return q.MaxEmployees
	}
	return 0
}

// Current returns the persisted running counter for a resource
func (q Quota) Current(r Resource) int {
	switch r {
	case ResourceListing:
		return q.CurrentActiveListings
	case ResourceCustomer:
		return q.CurrentCustomers
	case ResourceEmployee:
		return q.CurrentEmployees
	}
	return 0
}

// InitialQuota derives the onboarding quota from account type and ownership.
// All counters start at zero.
func InitialQuota(accountType AccountType, isCompanyOwner bool) Quota {
	switch accountType {
	case AccountTypeIndividualBroker:
		return Quota{
			MaxActiveListings: IndividualMaxActiveListings,
			MaxCustomers:      IndividualMaxCustomers,
		}
	case AccountTypeCorporateCompany:
		if isCompanyOwner {
			return OwnerQuota(CompanyMaxEmployees, EmployeeMaxActiveListings, EmployeeMaxCustomers)
		}
		return Quota{
			MaxActiveListings: EmployeeMaxActiveListings,
			MaxCustomers:      EmployeeMaxCustomers,
		}
	case AccountTypePlatformAdmin:
		return Quota{Unlimited: true}
	}
	// customers and anything unrecognised own nothing
	return Quota{}
}

// OwnerQuota builds a company owner's quota. The owner's own listing and
// customer ceilings are the per-employee ceilings multiplied by the employee
// ceiling.
func OwnerQuota(maxEmployees, listingsPerEmployee, customersPerEmployee int) Quota {
	return Quota{
		MaxEmployees:            maxEmployees,
		MaxListingsPerEmployee:  listingsPerEmployee,
		MaxCustomersPerEmployee: customersPerEmployee,
		MaxActiveListings:       maxEmployees * listingsPerEmployee,
		MaxCustomers:            maxEmployees * customersPerEmployee,
	}
}

// DefaultRoles returns the roles granted at onboarding
func DefaultRoles(accountType AccountType, isCompanyOwner bool) RoleList {
	switch accountType {
	case AccountTypeIndividualBroker:
		return RoleList{RoleIndividualAgent}
	case AccountTypeCorporateCompany:
		if isCompanyOwner {
			return RoleList{RoleCorporateOwner}
		}
		return RoleList{RoleCorporateAgent}
	case AccountTypePlatformAdmin:
		return RoleList{RoleWebsiteAdmin}
	case AccountTypeCustomer:
		return RoleList{RoleBuyer}
	}
	return RoleList{}
}

// Account is a logged-in principal. Accounts are soft-deactivated, never
// hard-deleted while they own resources.
type Account struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	TenantID        uuid.UUID   `json:"tenant_id" db:"tenant_id"`
	AccountType     AccountType `json:"account_type" db:"account_type"`
	IsCompanyOwner  bool        `json:"is_company_owner" db:"is_company_owner"`
	ParentCompanyID *uuid.UUID  `json:"parent_company_id,omitempty" db:"parent_company_id"`
	Roles           RoleList    `json:"roles" db:"roles"`
	Email           string      `json:"email" db:"email"`
	PasswordHash    string      `json:"-" db:"password_hash"`
	FirstName       string      `json:"first_name" db:"first_name"`
	LastName        string      `json:"last_name" db:"last_name"`
	Phone           string      `json:"phone" db:"phone"`
	CompanyName     string      `json:"company_name" db:"company_name"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	Quota           `json:"quota"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsEmployee reports whether the account belongs to a company it does not own
func (a *Account) IsEmployee() bool {
	return a.AccountType == AccountTypeCorporateCompany && !a.IsCompanyOwner && a.ParentCompanyID != nil
}

// FullName joins first and last name
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
