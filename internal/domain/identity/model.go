// Package identity holds the tenancy primitives every clinical record hangs
// off of: organizations (practices), the providers who work in them, and the
// patients they treat. Every other domain scopes its rows by organization.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant: a practice or clinic whose records are isolated
// from every other organization.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is a clinician or staff member belonging to one organization.
type Provider struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Patient is a person under the care of one organization. Patients are soft
// deleted: the row stays for audit but drops out of queries.
type Patient struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	GivenName  string     `json:"given_name"`
	FamilyName string     `json:"family_name"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	IsDeleted  bool       `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Provider roles used by route authorization.
const (
	RoleAdmin     = "admin"
	RoleClinician = "clinician"
	RoleFrontDesk = "front_desk"
)

var validProviderRoles = map[string]bool{
	RoleAdmin:     true,
	RoleClinician: true,
	RoleFrontDesk: true,
}
