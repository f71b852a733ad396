package models

import "time"

// Onboarding request lifecycle states. A request is created pending and
// transitions exactly once to approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// OnboardingRequest represents one prospective family admin waiting for
// superadmin review. FamilyPasswordEncrypted holds the family secret sealed
// under the admin's password; the plaintext secret is never persisted.
type OnboardingRequest struct {
	ID                      string
	Email                   string
	FullName                string
	FamilyName              string
	FamilyPasswordEncrypted string
	Status                  string
	UserID                  *string
	RequestedAt             time.Time
	ReviewedBy              *string
	ReviewedAt              *time.Time
	RejectionReason         *string
}

// IsPending reports whether the request can still be reviewed.
func (r *OnboardingRequest) IsPending() bool {
	return r.Status == StatusPending
}

// RequestSummary is the redacted view of a request returned to reviewers.
// It deliberately omits the encrypted family password.
type RequestSummary struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	FamilyName  string    `json:"family_name"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// RequestStatus is the status projection for a single request.
type RequestStatus struct {
	RequestID       string     `json:"request_id"`
	Status          string     `json:"status"`
	Email           string     `json:"email"`
	FamilyName      string     `json:"family_name"`
	RequestedAt     time.Time  `json:"requested_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

// Summary returns the redacted view of the request.
func (r *OnboardingRequest) Summary() RequestSummary {
	return RequestSummary{
		ID:          r.ID,
		Email:       r.Email,
		FullName:    r.FullName,
		FamilyName:  r.FamilyName,
		Status:      r.Status,
		RequestedAt: r.RequestedAt,
	}
}

// StatusProjection returns the status view of the request.
func (r *OnboardingRequest) StatusProjection() RequestStatus {
	return RequestStatus{
		RequestID:       r.ID,
		Status:          r.Status,
		Email:           r.Email,
		FamilyName:      r.FamilyName,
		RequestedAt:     r.RequestedAt,
		ReviewedAt:      r.ReviewedAt,
		RejectionReason: r.RejectionReason,
	}
}
