package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// DisputeRepository defines the interface for dispute data access.
type DisputeRepository interface {
	Create(dispute *models.Dispute) error
	GetByID(id string) (*models.Dispute, error)
	List(status string, offset, limit int) ([]models.Dispute, int64, error)
	Update(dispute *models.Dispute) error
}

// GORMDisputeRepository is a GORM implementation of DisputeRepository.
type GORMDisputeRepository struct {
	db *gorm.DB
}

// NewGORMDisputeRepository creates a new instance of GORMDisputeRepository.
func NewGORMDisputeRepository(db *gorm.DB) *GORMDisputeRepository {
	return &GORMDisputeRepository{
		db: db,
	}
}

// Create persists a new dispute.
func (r *GORMDisputeRepository) Create(dispute *models.Dispute) error {
	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}
	if err := r.db.Create(dispute).Error; err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

// GetByID retrieves a dispute by its ID.
func (r *GORMDisputeRepository) GetByID(id string) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.First(&dispute, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("dispute")
		}
		return nil, fmt.Errorf("failed to get dispute by ID %s: %w", id, err)
	}
	return &dispute, nil
}

// List retrieves a page of disputes, optionally filtered by status.
func (r *GORMDisputeRepository) List(status string, offset, limit int) ([]models.Dispute, int64, error) {
	query := r.db.Model(&models.Dispute{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count disputes: %w", err)
	}

	var disputes []models.Dispute
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").
		Find(&disputes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, total, nil
}

// Update saves a modified dispute.
func (r *GORMDisputeRepository) Update(dispute *models.Dispute) error {
	res := r.db.Save(dispute)
	if res.Error != nil {
		return fmt.Errorf("failed to update dispute: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("dispute")
	}
	return nil
}
