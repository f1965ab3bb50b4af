package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
	"github.com/printcraft-co/printcraft-backend/pkg/pagination"
)

// Service exposes the admin catalog operations.
type Service interface {
	GetProductTree(ctx context.Context, productID uuid.UUID) (*ProductTree, error)
	AdminProductTree(ctx context.Context, productID uuid.UUID) (*ProductTree, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductTree, error)
	SaveProductTree(ctx context.Context, productID uuid.UUID, edited ProductTree) (*ProductTree, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	NameEN        string
	NameFR        string
	DescriptionEN *string
	DescriptionFR *string
	MinOrderQty   int
	IsActive      bool
}

// ListProductsInput carries listing parameters.
type ListProductsInput struct {
	Pagination pagination.Params
	ActiveOnly bool
}

type service struct {
	repo   *Repository
	engine Engine
	assets assetManager
	logg   *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo *Repository, engine Engine, assets assetManager, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("reconciliation engine required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, assets: assets, logg: logg}, nil
}

// GetProductTree returns the full nested tree ordered by position at every
// level. Inactive products read as not found on this path.
func (s *service) GetProductTree(ctx context.Context, productID uuid.UUID) (*ProductTree, error) {
	return s.loadTree(ctx, productID, true)
}

// AdminProductTree is the editor's read: active state does not gate it.
func (s *service) AdminProductTree(ctx context.Context, productID uuid.UUID) (*ProductTree, error) {
	return s.loadTree(ctx, productID, false)
}

func (s *service) loadTree(ctx context.Context, productID uuid.UUID, activeOnly bool) (*ProductTree, error) {
	product, err := s.repo.GetProductTree(ctx, productID, activeOnly)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product tree")
	}
	return TreeFromModel(product), nil
}

// CreateProduct inserts a bare product row; its tree starts empty.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductTree, error) {
	if strings.TrimSpace(input.NameEN) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name_en is required")
	}
	if input.MinOrderQty == 0 {
		input.MinOrderQty = 1
	}
	if input.MinOrderQty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_order_qty must be at least 1")
	}

	product := &models.Product{
		NameEN:        strings.TrimSpace(input.NameEN),
		NameFR:        strings.TrimSpace(input.NameFR),
		DescriptionEN: input.DescriptionEN,
		DescriptionFR: input.DescriptionFR,
		MinOrderQty:   input.MinOrderQty,
		IsActive:      input.IsActive,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	return TreeFromModel(created), nil
}

// SaveProductTree reconciles the edited tree against the persisted one and
// updates the product's scalar fields. The persisted state loaded here serves
// as the diff baseline.
func (s *service) SaveProductTree(ctx context.Context, productID uuid.UUID, edited ProductTree) (*ProductTree, error) {
	if err := validateTree(edited); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProductTree(ctx, productID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product tree")
	}
	original := TreeFromModel(product)

	if scalarFieldsChanged(product, edited) {
		product.NameEN = strings.TrimSpace(edited.NameEN)
		product.NameFR = strings.TrimSpace(edited.NameFR)
		product.DescriptionEN = edited.DescriptionEN
		product.DescriptionFR = edited.DescriptionFR
		product.MinOrderQty = edited.MinOrderQty
		product.IsActive = edited.IsActive
		product.Images = nil
		product.OptionGroups = nil
		if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product").
				WithDetails(map[string]any{"step": "product_update"})
		}
	}

	if err := s.engine.Reconcile(ctx, productID, *original, edited); err != nil {
		return nil, err
	}

	saved, err := s.repo.GetProductTree(ctx, productID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product tree")
	}
	return TreeFromModel(saved), nil
}

// DeleteProduct removes the product rows, then best-effort purges the binaries
// behind its images. Storage failures never block the data deletion.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	assetURLs, err := s.repo.DeleteProduct(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product").
			WithDetails(map[string]any{"step": "product_delete"})
	}

	for _, url := range assetURLs {
		s.assets.Purge(ctx, url)
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	result, err := s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination: input.Pagination,
		ActiveOnly: input.ActiveOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func validateTree(tree ProductTree) error {
	if strings.TrimSpace(tree.NameEN) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name_en is required")
	}
	if tree.MinOrderQty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_order_qty must be at least 1")
	}
	for _, group := range tree.Groups {
		if len(group.Choices) == 0 {
			continue // excluded from persistence, not an error
		}
		if strings.TrimSpace(group.NameEN) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "option group name_en is required")
		}
		for _, choice := range group.Choices {
			if strings.TrimSpace(choice.NameEN) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "option choice name_en is required")
			}
		}
	}
	for _, image := range tree.Images {
		if image.ID == nil && len(image.Content) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "new image carries no content")
		}
	}
	return nil
}

func scalarFieldsChanged(product *models.Product, edited ProductTree) bool {
	return product.NameEN != strings.TrimSpace(edited.NameEN) ||
		product.NameFR != strings.TrimSpace(edited.NameFR) ||
		!ptrStringEqual(product.DescriptionEN, edited.DescriptionEN) ||
		!ptrStringEqual(product.DescriptionFR, edited.DescriptionFR) ||
		product.MinOrderQty != edited.MinOrderQty ||
		product.IsActive != edited.IsActive
}

func ptrStringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
