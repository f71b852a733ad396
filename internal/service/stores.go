package service

import (
	"context"
	"errors"
	"time"

	"familytree/internal/models"
)

// ErrDuplicate is returned by store implementations when an insert hits a
// unique constraint. It is the store-level backstop behind the workflow's
// advisory uniqueness checks.
var ErrDuplicate = errors.New("duplicate record")

// RequestStore persists onboarding requests.
type RequestStore interface {
	Insert(req *models.OnboardingRequest) error
	GetByID(id string) (*models.OnboardingRequest, error)
	HasPendingForEmail(email string) (bool, error)
	ListPending() ([]models.OnboardingRequest, error)
	MarkApproved(id, userID, reviewedBy string, reviewedAt time.Time) error
	MarkRejected(id, reviewedBy, reason string, reviewedAt time.Time) error
}

// FamilyStore persists family workspaces.
type FamilyStore interface {
	Insert(family *models.Family) error
	GetByName(familyName string) (*models.Family, error)
	Delete(id string) error
}

// UserStore persists platform accounts.
type UserStore interface {
	Insert(user *models.User) error
	GetByEmail(email string) (*models.User, error)
}

// IdentityProvider mints login accounts. CreateOrGetAccount returns the
// subject id whether the account was just created or already existed, so a
// retried approval does not fail on its own earlier side effect.
type IdentityProvider interface {
	CreateOrGetAccount(ctx context.Context, email, password string) (string, error)
}
