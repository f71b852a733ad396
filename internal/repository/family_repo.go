package repository

import (
	"database/sql"
	"fmt"

	"familytree/internal/database"
	"familytree/internal/models"
	"familytree/internal/service"
)

// FamilyRepository handles database operations for families
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Insert persists a new family. A duplicate family name surfaces as
// service.ErrDuplicate.
func (r *FamilyRepository) Insert(family *models.Family) error {
	query := `
		INSERT INTO families (id, family_name, admin_user_id, family_password_encrypted, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		family.ID,
		family.FamilyName,
		family.AdminUserID,
		family.FamilyPasswordEncrypted,
		family.CreatedAt,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return fmt.Errorf("failed to insert family: %w", service.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert family: %w", err)
	}
	return nil
}

// GetByName retrieves a family by its globally unique name, or nil if absent
func (r *FamilyRepository) GetByName(familyName string) (*models.Family, error) {
	query := `
		SELECT id, family_name, admin_user_id, family_password_encrypted, created_at
		FROM families
		WHERE family_name = ?
	`
	family := &models.Family{}
	err := r.db.QueryRow(query, familyName).Scan(
		&family.ID,
		&family.FamilyName,
		&family.AdminUserID,
		&family.FamilyPasswordEncrypted,
		&family.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

// Delete removes a family. Used to compensate a failed approval.
func (r *FamilyRepository) Delete(id string) error {
	query := "DELETE FROM families WHERE id = ?"
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}
