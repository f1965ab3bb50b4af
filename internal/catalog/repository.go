package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	"github.com/printcraft-co/printcraft-backend/pkg/pagination"
)

// Repository wires together catalog persistence for products and their trees.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByID loads the product row without associations.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads the product row regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductTree fetches the full nested tree with every level ordered by
// position. Storefront reads pass activeOnly; the admin editor sees inactive
// products too.
func (r *Repository) GetProductTree(ctx context.Context, id uuid.UUID, activeOnly bool) (*models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("OptionGroups", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("OptionGroups.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes the product with its images, groups, and choices, and
// returns the asset URLs whose binaries the caller must purge afterwards.
// Child rows are deleted explicitly so correctness never depends on FK cascade
// configuration.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) ([]string, error) {
	tx := r.db.WithContext(ctx)

	var assetURLs []string
	if err := tx.Model(&models.ProductImage{}).
		Where("product_id = ?", id).
		Pluck("url", &assetURLs).
		Error; err != nil {
		return nil, err
	}

	var groupIDs []uuid.UUID
	if err := tx.Model(&models.OptionGroup{}).
		Where("product_id = ?", id).
		Pluck("id", &groupIDs).
		Error; err != nil {
		return nil, err
	}

	if len(groupIDs) > 0 {
		if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.OptionChoice{}).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.OptionGroup{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
		return nil, err
	}

	return assetURLs, nil
}

// CreateGroup inserts one option group row.
func (r *Repository) CreateGroup(ctx context.Context, group *models.OptionGroup) (*models.OptionGroup, error) {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup saves changed fields of an existing group.
func (r *Repository) UpdateGroup(ctx context.Context, group *models.OptionGroup) error {
	return r.db.WithContext(ctx).
		Model(&models.OptionGroup{}).
		Where("id = ?", group.ID).
		Updates(map[string]any{
			"name_en":  group.NameEN,
			"name_fr":  group.NameFR,
			"position": group.Position,
		}).Error
}

// DeleteGroup removes the group and its choices.
func (r *Repository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("group_id = ?", id).Delete(&models.OptionChoice{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.OptionGroup{}).Error
}

// CreateChoice inserts one option choice row.
func (r *Repository) CreateChoice(ctx context.Context, choice *models.OptionChoice) (*models.OptionChoice, error) {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(choice).Error; err != nil {
		return nil, err
	}
	return choice, nil
}

// UpdateChoice saves changed fields of an existing choice.
func (r *Repository) UpdateChoice(ctx context.Context, choice *models.OptionChoice) error {
	return r.db.WithContext(ctx).
		Model(&models.OptionChoice{}).
		Where("id = ?", choice.ID).
		Updates(map[string]any{
			"name_en":  choice.NameEN,
			"name_fr":  choice.NameFR,
			"position": choice.Position,
		}).Error
}

// DeleteChoice removes one choice row.
func (r *Repository) DeleteChoice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OptionChoice{}).Error
}

// CreateImage inserts one product image row.
func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) (*models.ProductImage, error) {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

// UpdateImageFlags saves the primary flag and position of an existing image.
func (r *Repository) UpdateImageFlags(ctx context.Context, id uuid.UUID, isPrimary bool, position int) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_primary": isPrimary,
			"position":   position,
		}).Error
}

// DeleteImage removes one image row.
func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductImage{}).Error
}

// ListImagesByProduct returns the persisted image rows ordered by position.
func (r *Repository) ListImagesByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var rows []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListReferencedAssetURLs returns every asset URL currently referenced by any
// product image. Used by the orphan sweep.
func (r *Repository) ListReferencedAssetURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Pluck("url", &urls).
		Error
	return urls, err
}

// ProductSummary is one row of the admin/storefront listing.
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	NameEN      string    `json:"name_en"`
	NameFR      string    `json:"name_fr"`
	MinOrderQty int       `json:"min_order_qty"`
	IsActive    bool      `json:"is_active"`
	PrimaryURL  *string   `json:"primary_image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResult carries one listing page plus the cursor for the next.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type productListQuery struct {
	Pagination pagination.Params
	ActiveOnly bool
}

func (r *Repository) ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if query.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	resultRows := rows
	nextCursor := ""
	if len(rows) > pageSize {
		resultRows = rows[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, row := range resultRows {
		summaries = append(summaries, ProductSummary{
			ID:          row.ID,
			NameEN:      row.NameEN,
			NameFR:      row.NameFR,
			MinOrderQty: row.MinOrderQty,
			IsActive:    row.IsActive,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}

	if err := r.attachPrimaryURLs(ctx, summaries); err != nil {
		return nil, err
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

func (r *Repository) attachPrimaryURLs(ctx context.Context, summaries []ProductSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}

	var primaries []models.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id IN ? AND is_primary = ?", ids, true).
		Find(&primaries).
		Error; err != nil {
		return err
	}

	byProduct := make(map[uuid.UUID]string, len(primaries))
	for _, image := range primaries {
		byProduct[image.ProductID] = image.URL
	}
	for i := range summaries {
		if url, ok := byProduct[summaries[i].ID]; ok {
			u := url
			summaries[i].PrimaryURL = &u
		}
	}
	return nil
}
