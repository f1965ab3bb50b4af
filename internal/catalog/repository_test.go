package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	"github.com/printcraft-co/printcraft-backend/pkg/pagination"
)

func mustCreateTestProduct(t *testing.T, repo *Repository, name string) *models.Product {
	t.Helper()
	product, err := repo.CreateProduct(context.Background(), &models.Product{
		NameEN:      name,
		NameFR:      name + " FR",
		MinOrderQty: 25,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestRepositoryProductTreeOrdering(t *testing.T) {
	tx := beginTestTx(t)
	repo := NewRepository(tx)
	ctx := context.Background()

	product := mustCreateTestProduct(t, repo, "Flyers")

	// Insert out of order; the fetch must come back position-sorted.
	group, err := repo.CreateGroup(ctx, &models.OptionGroup{
		ProductID: product.ID, NameEN: "Paper Size", Position: 1,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	first, err := repo.CreateGroup(ctx, &models.OptionGroup{
		ProductID: product.ID, NameEN: "Finish", Position: 0,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if _, err := repo.CreateChoice(ctx, &models.OptionChoice{
		GroupID: group.ID, NameEN: "A5", Position: 1,
	}); err != nil {
		t.Fatalf("create choice: %v", err)
	}
	if _, err := repo.CreateChoice(ctx, &models.OptionChoice{
		GroupID: group.ID, NameEN: "A4", Position: 0,
	}); err != nil {
		t.Fatalf("create choice: %v", err)
	}

	if _, err := repo.CreateImage(ctx, &models.ProductImage{
		ProductID: product.ID, URL: "https://cdn.test/b.png", Position: 1,
	}); err != nil {
		t.Fatalf("create image: %v", err)
	}
	if _, err := repo.CreateImage(ctx, &models.ProductImage{
		ProductID: product.ID, URL: "https://cdn.test/a.png", IsPrimary: true, Position: 0,
	}); err != nil {
		t.Fatalf("create image: %v", err)
	}

	loaded, err := repo.GetProductTree(ctx, product.ID, true)
	if err != nil {
		t.Fatalf("get product tree: %v", err)
	}

	if len(loaded.OptionGroups) != 2 || loaded.OptionGroups[0].ID != first.ID {
		t.Fatalf("expected groups ordered by position, got %+v", loaded.OptionGroups)
	}
	choices := loaded.OptionGroups[1].Choices
	if len(choices) != 2 || choices[0].NameEN != "A4" {
		t.Fatalf("expected choices ordered by position, got %+v", choices)
	}
	if len(loaded.Images) != 2 || loaded.Images[0].URL != "https://cdn.test/a.png" {
		t.Fatalf("expected images ordered by position, got %+v", loaded.Images)
	}
}

func TestRepositoryGetProductTreeSkipsInactive(t *testing.T) {
	tx := beginTestTx(t)
	repo := NewRepository(tx)
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, &models.Product{
		NameEN: "Hidden", MinOrderQty: 1, IsActive: false,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err = repo.GetProductTree(ctx, product.ID, true)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found for inactive product, got %v", err)
	}

	// The editor path still sees it.
	loaded, err := repo.GetProductTree(ctx, product.ID, false)
	if err != nil {
		t.Fatalf("expected admin read to find inactive product, got %v", err)
	}
	if loaded.NameEN != "Hidden" {
		t.Fatalf("unexpected product loaded: %+v", loaded)
	}
}

func TestRepositoryDeleteProductReturnsAssetURLs(t *testing.T) {
	tx := beginTestTx(t)
	repo := NewRepository(tx)
	ctx := context.Background()

	product := mustCreateTestProduct(t, repo, "Posters")
	group, err := repo.CreateGroup(ctx, &models.OptionGroup{ProductID: product.ID, NameEN: "Size"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := repo.CreateChoice(ctx, &models.OptionChoice{GroupID: group.ID, NameEN: "A2"}); err != nil {
		t.Fatalf("create choice: %v", err)
	}
	if _, err := repo.CreateImage(ctx, &models.ProductImage{
		ProductID: product.ID, URL: "https://cdn.test/poster.png", IsPrimary: true,
	}); err != nil {
		t.Fatalf("create image: %v", err)
	}

	urls, err := repo.DeleteProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.test/poster.png" {
		t.Fatalf("expected the image url returned for purge, got %v", urls)
	}

	var choiceCount int64
	if err := tx.Model(&models.OptionChoice{}).Where("group_id = ?", group.ID).Count(&choiceCount).Error; err != nil {
		t.Fatalf("count choices: %v", err)
	}
	if choiceCount != 0 {
		t.Fatalf("expected no orphan choices, got %d", choiceCount)
	}

	if _, err := repo.FindActiveByID(ctx, product.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected product gone, got %v", err)
	}
}

func TestRepositoryListProductSummaries(t *testing.T) {
	tx := beginTestTx(t)
	repo := NewRepository(tx)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"One", "Two", "Three"} {
		ids = append(ids, mustCreateTestProduct(t, repo, name).ID)
	}
	if _, err := repo.CreateImage(ctx, &models.ProductImage{
		ProductID: ids[2], URL: "https://cdn.test/three.png", IsPrimary: true,
	}); err != nil {
		t.Fatalf("create image: %v", err)
	}

	page, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(page.Products) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page.Products))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	rest, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor},
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Products) == 0 {
		t.Fatal("expected remaining products on second page")
	}

	seen := map[uuid.UUID]bool{}
	for _, summary := range append(page.Products, rest.Products...) {
		if seen[summary.ID] {
			t.Fatalf("product %s appeared twice across pages", summary.ID)
		}
		seen[summary.ID] = true
	}

	for _, summary := range append(page.Products, rest.Products...) {
		if summary.ID == ids[2] {
			if summary.PrimaryURL == nil || *summary.PrimaryURL != "https://cdn.test/three.png" {
				t.Fatalf("expected primary url attached, got %v", summary.PrimaryURL)
			}
		}
	}
}
