package models

import "time"

// Family represents a family workspace. It is created only as a side effect
// of approving an onboarding request. FamilyPasswordEncrypted is the blob
// carried over unchanged from the request: it was sealed under the admin
// password supplied at request time, and re-encrypting it here would make
// the family secret unrecoverable.
type Family struct {
	ID                      string
	FamilyName              string
	AdminUserID             string
	FamilyPasswordEncrypted string
	CreatedAt               time.Time
}
