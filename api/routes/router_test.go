package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/printcraft-co/printcraft-backend/internal/cart"
	"github.com/printcraft-co/printcraft-backend/internal/catalog"
	"github.com/printcraft-co/printcraft-backend/internal/quotes"
	pkgAuth "github.com/printcraft-co/printcraft-backend/pkg/auth"
	"github.com/printcraft-co/printcraft-backend/pkg/config"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
	"github.com/printcraft-co/printcraft-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

// GetProductTree implements [catalog.Service].
func (s stubCatalogService) GetProductTree(ctx context.Context, productID uuid.UUID) (*catalog.ProductTree, error) {
	return &catalog.ProductTree{NameEN: "Flyers", MinOrderQty: 25, IsActive: true}, nil
}

// AdminProductTree implements [catalog.Service].
func (s stubCatalogService) AdminProductTree(ctx context.Context, productID uuid.UUID) (*catalog.ProductTree, error) {
	return &catalog.ProductTree{NameEN: "Flyers", MinOrderQty: 25}, nil
}

// CreateProduct implements [catalog.Service].
func (s stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductTree, error) {
	panic("unimplemented")
}

// SaveProductTree implements [catalog.Service].
func (s stubCatalogService) SaveProductTree(ctx context.Context, productID uuid.UUID, edited catalog.ProductTree) (*catalog.ProductTree, error) {
	panic("unimplemented")
}

// DeleteProduct implements [catalog.Service].
func (s stubCatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	panic("unimplemented")
}

// ListProducts implements [catalog.Service].
func (s stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{}, nil
}

type stubCartService struct{}

// GetOrCreateActiveCart implements [cart.Service].
func (s stubCartService) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{ID: uuid.New(), Status: "active", Items: []cart.ItemDTO{}}, nil
}

// AddItem implements [cart.Service].
func (s stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	panic("unimplemented")
}

// RemoveItem implements [cart.Service].
func (s stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return nil
}

type stubQuotesService struct{}

// SubmitQuote implements [quotes.Service].
func (s stubQuotesService) SubmitQuote(ctx context.Context, userID, cartID uuid.UUID) (*quotes.SubmissionDTO, error) {
	panic("unimplemented")
}

// ListQuoteRequests implements [quotes.Service].
func (s stubQuotesService) ListQuoteRequests(ctx context.Context, userID uuid.UUID) ([]quotes.QuoteRequestDTO, error) {
	return []quotes.QuoteRequestDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      stubPinger{},
		Redis:   (*redis.Client)(nil),
		GCS:     stubPinger{},
		Catalog: stubCatalogService{},
		Cart:    stubCartService{},
		Quotes:  stubQuotesService{},
	})
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())

	list := httptest.NewRequest(http.MethodGet, "/api/public/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public listing got %d", resp.Code)
	}

	tree := httptest.NewRequest(http.MethodGet, "/api/public/v1/products/"+uuid.NewString(), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, tree)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public tree got %d", resp.Code)
	}
}

func TestCartGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminFlag(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestQuoteHistoryRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/quote-requests", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for quote history got %d", resp.Code)
	}
}

func TestCartAddItemRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, isAdmin bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
