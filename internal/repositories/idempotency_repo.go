package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
)

// IdempotencyRepository stores checkout idempotency keys.
type IdempotencyRepository interface {
	Get(buyerID, key string) (*models.IdempotencyKey, error)
	Save(record *models.IdempotencyKey) error
}

// GORMIdempotencyRepository is a GORM implementation of IdempotencyRepository.
type GORMIdempotencyRepository struct {
	db *gorm.DB
}

// NewGORMIdempotencyRepository creates a new instance of GORMIdempotencyRepository.
func NewGORMIdempotencyRepository(db *gorm.DB) *GORMIdempotencyRepository {
	return &GORMIdempotencyRepository{
		db: db,
	}
}

// Get retrieves a stored key for the buyer, if present.
func (r *GORMIdempotencyRepository) Get(buyerID, key string) (*models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	err := r.db.Where("buyer_id = ? AND key = ?", buyerID, key).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("idempotency key")
		}
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return &record, nil
}

// Save persists a new idempotency record.
func (r *GORMIdempotencyRepository) Save(record *models.IdempotencyKey) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

// MockIdempotencyRepository is an in-memory implementation of IdempotencyRepository.
type MockIdempotencyRepository struct {
	records map[string]models.IdempotencyKey
	mu      sync.RWMutex
}

// NewMockIdempotencyRepository creates a new instance of MockIdempotencyRepository.
func NewMockIdempotencyRepository() *MockIdempotencyRepository {
	return &MockIdempotencyRepository{
		records: make(map[string]models.IdempotencyKey),
	}
}

// Get retrieves a stored key for the buyer, if present.
func (r *MockIdempotencyRepository) Get(buyerID, key string) (*models.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[buyerID+"/"+key]
	if !ok {
		return nil, apperrors.NotFound("idempotency key")
	}
	return &record, nil
}

// Save persists a new idempotency record.
func (r *MockIdempotencyRepository) Save(record *models.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	r.records[record.BuyerID+"/"+record.Key] = *record
	return nil
}
