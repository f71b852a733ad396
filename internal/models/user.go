package models

import "time"

// User roles.
const (
	RoleFamilyAdmin = "family_admin"
	RoleSuperAdmin  = "superadmin"
)

// Approval states for user accounts.
const (
	ApprovalApproved = "approved"
)

// User represents a platform account. The ID is the subject identifier
// assigned by the identity provider, not a locally generated value.
type User struct {
	ID             string
	Email          string
	FullName       string
	FamilyID       *string
	Role           string
	ApprovalStatus string
	PasswordHash   string
	CreatedAt      time.Time
}
