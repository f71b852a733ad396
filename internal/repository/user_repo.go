package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/service"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert persists a new user. A duplicate id or email surfaces as
// service.ErrDuplicate.
func (r *UserRepository) Insert(user *models.User) error {
	query := `
		INSERT INTO users (id, email, full_name, family_id, role, approval_status, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var familyID interface{}
	if user.FamilyID != nil {
		familyID = *user.FamilyID
	}
	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.FullName,
		familyID,
		user.Role,
		user.ApprovalStatus,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return fmt.Errorf("failed to insert user: %w", service.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email, or nil if absent
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, full_name, family_id, role, approval_status, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetByID retrieves a user by id, or nil if absent
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, full_name, family_id, role, approval_status, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.db.QueryRow(query, id))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var familyID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&familyID,
		&user.Role,
		&user.ApprovalStatus,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if familyID.Valid {
		user.FamilyID = &familyID.String
	}

	return user, nil
}
