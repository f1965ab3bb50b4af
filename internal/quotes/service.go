package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/internal/cart"
	"github.com/printcraft-co/printcraft-backend/pkg/db"
	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	"github.com/printcraft-co/printcraft-backend/pkg/enums"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes quote submission.
type Service interface {
	SubmitQuote(ctx context.Context, userID, cartID uuid.UUID) (*SubmissionDTO, error)
	ListQuoteRequests(ctx context.Context, userID uuid.UUID) ([]QuoteRequestDTO, error)
}

// SubmissionDTO describes the result of a successful submission: the quote
// request that was opened and the fresh cart the user continues with.
type SubmissionDTO struct {
	QuoteRequestID uuid.UUID `json:"quote_request_id"`
	CartID         uuid.UUID `json:"cart_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	NewCartID      uuid.UUID `json:"new_cart_id"`
}

// QuoteRequestDTO is one historical quote request.
type QuoteRequestDTO struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	CreatedAt time.Time `json:"created_at"`
}

type service struct {
	tx    transactor
	carts *cart.Repository
	repo  *Repository
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the quote service.
func NewService(tx transactor, carts *cart.Repository, repo *Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, carts: carts, repo: repo, logg: logg, now: time.Now}, nil
}

// SubmitQuote freezes the cart, opens a quote request against it, and starts a
// fresh active cart for the user. All three writes commit or roll back
// together.
func (s *service) SubmitQuote(ctx context.Context, userID, cartID uuid.UUID) (*SubmissionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart_id is required")
	}

	var result SubmissionDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		requests := s.repo.WithTx(tx)

		submitted, err := carts.FindByIDAndUser(ctx, cartID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if submitted.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already submitted")
		}
		if len(submitted.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		submittedAt := s.now().UTC()
		if err := carts.MarkSubmitted(ctx, submitted.ID, submittedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "freeze cart")
		}

		request, err := requests.Create(ctx, &models.QuoteRequest{
			UserID: userID,
			CartID: submitted.ID,
		})
		if err != nil {
			// The unique cart_id index turns a concurrent double submit into
			// a conflict rather than a second quote request.
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already submitted")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open quote request")
		}

		fresh, err := carts.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusActive})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start fresh cart")
		}

		result = SubmissionDTO{
			QuoteRequestID: request.ID,
			CartID:         submitted.ID,
			SubmittedAt:    submittedAt,
			NewCartID:      fresh.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"cart_id":          result.CartID.String(),
		"quote_request_id": result.QuoteRequestID.String(),
	})
	s.logg.Info(ctx, "quote request submitted")
	return &result, nil
}

// ListQuoteRequests returns the caller's submission history, newest first.
func (s *service) ListQuoteRequests(ctx context.Context, userID uuid.UUID) ([]QuoteRequestDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quote requests")
	}

	out := make([]QuoteRequestDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, QuoteRequestDTO{ID: row.ID, CartID: row.CartID, CreatedAt: row.CreatedAt})
	}
	return out, nil
}
