package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	"github.com/printcraft-co/printcraft-backend/pkg/enums"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

type productChecker interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the customer cart operations.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

// AddItemInput carries one add-to-cart request.
type AddItemInput struct {
	ProductID  uuid.UUID
	Quantity   int
	Selections Selections
}

// CartDTO is the resolved cart returned to clients.
type CartDTO struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Items  []ItemDTO `json:"items"`
}

// ItemDTO is one resolved cart line.
type ItemDTO struct {
	ID         uuid.UUID         `json:"id"`
	ProductID  uuid.UUID         `json:"product_id"`
	Quantity   int               `json:"quantity"`
	Selections []SelectionDetail `json:"selections"`
}

// SelectionDetail is one group/choice pair with display names resolved against
// the current catalog. When a reference has vanished the raw id stands in for
// the name.
type SelectionDetail struct {
	GroupID      string `json:"group_id"`
	ChoiceID     string `json:"choice_id"`
	GroupNameEN  string `json:"group_name_en"`
	GroupNameFR  string `json:"group_name_fr"`
	ChoiceNameEN string `json:"choice_name_en"`
	ChoiceNameFR string `json:"choice_name_fr"`
}

type service struct {
	repo     *Repository
	products productChecker
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(repo *Repository, products productChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

// GetOrCreateActiveCart returns the user's newest active cart, creating one
// lazily on first interaction.
func (s *service) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		cart, err = s.repo.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusActive})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
	}

	return s.resolveCart(ctx, cart)
}

// AddItem merges into an existing line when the product and the canonical
// selection text match, otherwise inserts a new line.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	if _, err := s.products.FindActiveByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		cart, err = s.repo.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusActive})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
	}

	canonical := Canonicalize(input.Selections)

	existing, err := s.repo.FindMergeableItem(ctx, cart.ID, input.ProductID, canonical)
	switch {
	case err == nil:
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge item quantity")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.repo.CreateItem(ctx, &models.CartItem{
			CartID:          cart.ID,
			ProductID:       input.ProductID,
			Quantity:        input.Quantity,
			SelectedOptions: canonical,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up cart item")
	}

	reloaded, err := s.repo.FindByIDAndUser(ctx, cart.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.resolveCart(ctx, reloaded)
}

// RemoveItem deletes one line after verifying the item sits in a cart owned by
// the caller and still open for mutation.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	cart, err := s.repo.FindByIDAndUser(ctx, item.CartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart item does not belong to caller")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

func (s *service) resolveCart(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	details, err := s.resolveItemDetails(ctx, cart.Items)
	if err != nil {
		return nil, err
	}
	return &CartDTO{
		ID:     cart.ID,
		Status: cart.Status.String(),
		Items:  details,
	}, nil
}

// resolveItemDetails batch-resolves every referenced group and choice in two
// queries and degrades to the raw id string for references the catalog no
// longer contains. A missing reference is display noise, never an error.
func (s *service) resolveItemDetails(ctx context.Context, items []models.CartItem) ([]ItemDTO, error) {
	parsed := make([]Selections, len(items))
	groupIDSet := map[uuid.UUID]struct{}{}
	choiceIDSet := map[uuid.UUID]struct{}{}

	for idx, item := range items {
		selections := ParseSelections(item.SelectedOptions)
		parsed[idx] = selections
		for groupID, choiceID := range selections {
			if id, err := uuid.Parse(groupID); err == nil {
				groupIDSet[id] = struct{}{}
			}
			if id, err := uuid.Parse(choiceID); err == nil {
				choiceIDSet[id] = struct{}{}
			}
		}
	}

	groups, err := s.repo.ListGroupsByIDs(ctx, setToSlice(groupIDSet))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve option groups")
	}
	choices, err := s.repo.ListChoicesByIDs(ctx, setToSlice(choiceIDSet))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve option choices")
	}

	groupsByID := make(map[string]models.OptionGroup, len(groups))
	for _, group := range groups {
		groupsByID[group.ID.String()] = group
	}
	choicesByID := make(map[string]models.OptionChoice, len(choices))
	for _, choice := range choices {
		choicesByID[choice.ID.String()] = choice
	}

	out := make([]ItemDTO, 0, len(items))
	for idx, item := range items {
		dto := ItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Selections: make([]SelectionDetail, 0, len(parsed[idx])),
		}
		for _, groupID := range sortedKeys(parsed[idx]) {
			choiceID := parsed[idx][groupID]
			detail := SelectionDetail{
				GroupID:      groupID,
				ChoiceID:     choiceID,
				GroupNameEN:  groupID,
				GroupNameFR:  groupID,
				ChoiceNameEN: choiceID,
				ChoiceNameFR: choiceID,
			}
			if group, ok := groupsByID[groupID]; ok {
				detail.GroupNameEN = group.NameEN
				detail.GroupNameFR = group.NameFR
			}
			if choice, ok := choicesByID[choiceID]; ok {
				detail.ChoiceNameEN = choice.NameEN
				detail.ChoiceNameFR = choice.NameFR
			}
			dto.Selections = append(dto.Selections, detail)
		}
		out = append(out, dto)
	}
	return out, nil
}

func setToSlice(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
