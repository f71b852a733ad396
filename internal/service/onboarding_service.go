package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"familytree/internal/models"
	"familytree/internal/security"
	"familytree/internal/validation"
)

// OnboardingService orchestrates the admin onboarding lifecycle: a
// prospective family admin files a request, a superadmin approves or
// rejects it, and approval creates the family workspace and admin account.
type OnboardingService struct {
	requests RequestStore
	families FamilyStore
	users    UserStore
	identity IdentityProvider
	cipher   *security.Cipher
	email    *EmailService
}

// NewOnboardingService creates a new onboarding service.
func NewOnboardingService(
	requests RequestStore,
	families FamilyStore,
	users UserStore,
	identity IdentityProvider,
	cipher *security.Cipher,
	email *EmailService,
) *OnboardingService {
	return &OnboardingService{
		requests: requests,
		families: families,
		users:    users,
		identity: identity,
		cipher:   cipher,
		email:    email,
	}
}

// CreateRequestResult is returned from CreateRequest. FamilyPassword is the
// plaintext family secret; this is the only time it is ever exposed and it
// cannot be recovered later without the admin password.
type CreateRequestResult struct {
	RequestID      string `json:"request_id"`
	Status         string `json:"status"`
	FamilyPassword string `json:"family_password"`
}

// ApprovalResult is returned from Approve.
type ApprovalResult struct {
	Status     string `json:"status"`
	UserID     string `json:"user_id"`
	FamilyID   string `json:"family_id"`
	Email      string `json:"email"`
	FamilyName string `json:"family_name"`
}

// CreateRequest files a new onboarding request. The family secret is
// generated here, encrypted under adminPassword, and returned in plaintext
// exactly once.
func (s *OnboardingService) CreateRequest(ctx context.Context, email, fullName, familyName, adminPassword string) (*CreateRequestResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if err := validation.ValidateFamilyName(familyName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(adminPassword); err != nil {
		return nil, err
	}

	// Advisory uniqueness checks; the store's unique constraints are the
	// backstop against concurrent duplicate submissions.
	family, err := s.families.GetByName(familyName)
	if err != nil {
		return nil, &StoreError{Op: "check family name", Err: err}
	}
	if family != nil {
		return nil, &ConflictError{Reason: ReasonFamilyNameTaken}
	}

	pending, err := s.requests.HasPendingForEmail(email)
	if err != nil {
		return nil, &StoreError{Op: "check pending request", Err: err}
	}
	if pending {
		return nil, &ConflictError{Reason: ReasonRequestPending}
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, &StoreError{Op: "check registered email", Err: err}
	}
	if user != nil {
		return nil, &ConflictError{Reason: ReasonEmailRegistered}
	}

	familyPassword, err := security.GenerateFamilySecret()
	if err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(familyPassword, adminPassword)
	if err != nil {
		return nil, err
	}

	req := &models.OnboardingRequest{
		ID:                      uuid.New().String(),
		Email:                   email,
		FullName:                fullName,
		FamilyName:              familyName,
		FamilyPasswordEncrypted: encrypted,
		Status:                  models.StatusPending,
		RequestedAt:             time.Now().UTC(),
	}

	if err := s.requests.Insert(req); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost a race against a concurrent submission for the same email.
			return nil, &ConflictError{Reason: ReasonRequestPending}
		}
		return nil, &StoreError{Op: "insert request", Err: err}
	}

	s.notify(func() error {
		return s.email.SendRequestReceivedEmail(ctx, email, fullName, familyName)
	})

	return &CreateRequestResult{
		RequestID:      req.ID,
		Status:         req.Status,
		FamilyPassword: familyPassword,
	}, nil
}

// ListPending returns all pending requests, newest first, with encrypted
// secrets redacted.
func (s *OnboardingService) ListPending(ctx context.Context) ([]models.RequestSummary, error) {
	requests, err := s.requests.ListPending()
	if err != nil {
		return nil, &StoreError{Op: "list pending requests", Err: err}
	}

	summaries := make([]models.RequestSummary, 0, len(requests))
	for _, req := range requests {
		summaries = append(summaries, req.Summary())
	}
	return summaries, nil
}

// GetByID returns a single request.
func (s *OnboardingService) GetByID(ctx context.Context, id string) (*models.OnboardingRequest, error) {
	req, err := s.requests.GetByID(id)
	if err != nil {
		return nil, &StoreError{Op: "get request", Err: err}
	}
	if req == nil {
		return nil, &NotFoundError{RequestID: id}
	}
	return req, nil
}

// Approve transitions a pending request to approved and creates the family
// workspace plus the admin account. adminPassword must be the same value
// supplied at request time: the family secret on the request was encrypted
// under it, and the blob is carried over unchanged.
func (s *OnboardingService) Approve(ctx context.Context, requestID, superadminID, adminPassword string) (*ApprovalResult, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, &InvalidStateError{RequestID: requestID, Status: req.Status}
	}

	passwordHash, err := s.cipher.HashPassword(adminPassword)
	if err != nil {
		return nil, err
	}

	subjectID, err := s.identity.CreateOrGetAccount(ctx, req.Email, adminPassword)
	if err != nil {
		return nil, &IdentityProviderError{Err: err}
	}

	family := &models.Family{
		ID:                      uuid.New().String(),
		FamilyName:              req.FamilyName,
		AdminUserID:             subjectID,
		FamilyPasswordEncrypted: req.FamilyPasswordEncrypted,
		CreatedAt:               time.Now().UTC(),
	}
	if err := s.families.Insert(family); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, &ConflictError{Reason: ReasonFamilyNameTaken}
		}
		return nil, &StoreError{Op: "create family", Err: err}
	}

	user := &models.User{
		ID:             subjectID,
		Email:          req.Email,
		FullName:       req.FullName,
		FamilyID:       &family.ID,
		Role:           models.RoleFamilyAdmin,
		ApprovalStatus: models.ApprovalApproved,
		PasswordHash:   passwordHash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Insert(user); err != nil {
		// Compensate the family insert so a retry starts clean. If the
		// delete also fails, manual reconciliation is required; surface
		// everything.
		if delErr := s.families.Delete(family.ID); delErr != nil {
			return nil, &StoreError{
				Op:  "create user",
				Err: fmt.Errorf("%w (family %s left orphaned: %v)", err, family.ID, delErr),
			}
		}
		return nil, &StoreError{Op: "create user", Err: err}
	}

	if err := s.requests.MarkApproved(requestID, subjectID, superadminID, time.Now().UTC()); err != nil {
		return nil, &StoreError{
			Op:  "mark request approved",
			Err: fmt.Errorf("family %s and user %s were created: %w", family.ID, subjectID, err),
		}
	}

	s.notify(func() error {
		return s.email.SendRequestApprovedEmail(ctx, req.Email, req.FullName, req.FamilyName)
	})

	return &ApprovalResult{
		Status:     models.StatusApproved,
		UserID:     subjectID,
		FamilyID:   family.ID,
		Email:      req.Email,
		FamilyName: req.FamilyName,
	}, nil
}

// Reject transitions a pending request to rejected. No family or user
// records are touched.
func (s *OnboardingService) Reject(ctx context.Context, requestID, superadminID, reason string) (*models.RequestStatus, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, &InvalidStateError{RequestID: requestID, Status: req.Status}
	}

	reviewedAt := time.Now().UTC()
	if err := s.requests.MarkRejected(requestID, superadminID, reason, reviewedAt); err != nil {
		return nil, &StoreError{Op: "mark request rejected", Err: err}
	}

	s.notify(func() error {
		return s.email.SendRequestRejectedEmail(ctx, req.Email, req.FullName, reason)
	})

	req.Status = models.StatusRejected
	req.ReviewedBy = &superadminID
	req.ReviewedAt = &reviewedAt
	req.RejectionReason = &reason
	status := req.StatusProjection()
	return &status, nil
}

// GetStatus returns the status projection for a request.
func (s *OnboardingService) GetStatus(ctx context.Context, requestID string) (*models.RequestStatus, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	status := req.StatusProjection()
	return &status, nil
}

// notify sends an email best-effort; a notification failure never fails the
// workflow operation that triggered it.
func (s *OnboardingService) notify(send func() error) {
	if !s.email.IsEnabled() {
		return
	}
	if err := send(); err != nil {
		log.Printf("Warning: failed to send notification email: %v", err)
	}
}
