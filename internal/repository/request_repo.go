package repository

import (
	"database/sql"
	"fmt"
	"time"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/service"
)

// OnboardingRequestRepository handles database operations for onboarding requests
type OnboardingRequestRepository struct {
	db *database.DB
}

// NewOnboardingRequestRepository creates a new onboarding request repository
func NewOnboardingRequestRepository(db *database.DB) *OnboardingRequestRepository {
	return &OnboardingRequestRepository{db: db}
}

// Insert persists a new onboarding request. A unique-constraint violation
// (concurrent pending request for the same email) surfaces as
// service.ErrDuplicate.
func (r *OnboardingRequestRepository) Insert(req *models.OnboardingRequest) error {
	query := `
		INSERT INTO onboarding_requests
			(id, email, full_name, family_name, family_password_encrypted, status, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		req.ID,
		req.Email,
		req.FullName,
		req.FamilyName,
		req.FamilyPasswordEncrypted,
		req.Status,
		req.RequestedAt,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return fmt.Errorf("failed to insert request: %w", service.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID, or nil if it doesn't exist
func (r *OnboardingRequestRepository) GetByID(id string) (*models.OnboardingRequest, error) {
	query := `
		SELECT id, email, full_name, family_name, family_password_encrypted,
		       status, user_id, requested_at, reviewed_by, reviewed_at, rejection_reason
		FROM onboarding_requests
		WHERE id = ?
	`
	req, err := scanRequest(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// HasPendingForEmail reports whether a pending request exists for the email
func (r *OnboardingRequestRepository) HasPendingForEmail(email string) (bool, error) {
	query := "SELECT COUNT(*) FROM onboarding_requests WHERE email = ? AND status = ?"
	var count int
	err := r.db.QueryRow(query, email, models.StatusPending).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return count > 0, nil
}

// ListPending retrieves all pending requests, newest first
func (r *OnboardingRequestRepository) ListPending() ([]models.OnboardingRequest, error) {
	query := `
		SELECT id, email, full_name, family_name, family_password_encrypted,
		       status, user_id, requested_at, reviewed_by, reviewed_at, rejection_reason
		FROM onboarding_requests
		WHERE status = ?
		ORDER BY requested_at DESC
	`
	rows, err := r.db.Query(query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	var requests []models.OnboardingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, *req)
	}

	return requests, rows.Err()
}

// MarkApproved records the approval outcome on the request
func (r *OnboardingRequestRepository) MarkApproved(id, userID, reviewedBy string, reviewedAt time.Time) error {
	query := `
		UPDATE onboarding_requests
		SET status = ?, user_id = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.StatusApproved, userID, reviewedBy, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark request approved: %w", err)
	}
	return nil
}

// MarkRejected records the rejection outcome on the request
func (r *OnboardingRequestRepository) MarkRejected(id, reviewedBy, reason string, reviewedAt time.Time) error {
	query := `
		UPDATE onboarding_requests
		SET status = ?, rejection_reason = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.StatusRejected, reason, reviewedBy, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark request rejected: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*models.OnboardingRequest, error) {
	var req models.OnboardingRequest
	var userID, reviewedBy, rejectionReason sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.Email,
		&req.FullName,
		&req.FamilyName,
		&req.FamilyPasswordEncrypted,
		&req.Status,
		&userID,
		&req.RequestedAt,
		&reviewedBy,
		&reviewedAt,
		&rejectionReason,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		req.UserID = &userID.String
	}
	if reviewedBy.Valid {
		req.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	if rejectionReason.Valid {
		req.RejectionReason = &rejectionReason.String
	}

	return &req, nil
}
