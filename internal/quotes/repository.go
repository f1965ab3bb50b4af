package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
)

// Repository persists quote request rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts one quote request. The unique index on cart_id rejects a
// second request for the same cart at the database level.
func (r *Repository) Create(ctx context.Context, request *models.QuoteRequest) (*models.QuoteRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindByCartID returns the quote request attached to the cart, if any.
func (r *Repository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.QuoteRequest, error) {
	var request models.QuoteRequest
	if err := r.db.WithContext(ctx).First(&request, "cart_id = ?", cartID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ListByUser returns the user's quote requests, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuoteRequest, error) {
	var rows []models.QuoteRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
