package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

// minimal valid 1x1 PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e,
	0x44, 0xae, 0x42, 0x60, 0x82,
}

type stubStore struct {
	putKey      string
	putType     string
	putErr      error
	deleteKey   string
	deleteErr   error
	deleteCalls int
}

func (s *stubStore) Put(_ context.Context, key, contentType string, _ []byte) error {
	s.putKey = key
	s.putType = contentType
	return s.putErr
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	s.deleteKey = key
	s.deleteCalls++
	return s.deleteErr
}

func (s *stubStore) PublicURL(key string) string {
	return "https://storage.googleapis.com/test-bucket/" + key
}

func (s *stubStore) KeyFromURL(assetURL string) (string, error) {
	const prefix = "https://storage.googleapis.com/test-bucket/"
	if !strings.HasPrefix(assetURL, prefix) {
		return "", errors.New("outside bucket")
	}
	return strings.TrimPrefix(assetURL, prefix), nil
}

func newTestService(t *testing.T, store *stubStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, logg, 20)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUploadStoresAndReturnsURL(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	svc := newTestService(t, store)

	url, err := svc.Upload(context.Background(), pngBytes, "Cover Photo.png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(store.putKey, "products/") {
		t.Fatalf("expected products/ key prefix, got %s", store.putKey)
	}
	if !strings.HasSuffix(store.putKey, "/Cover-Photo.png") {
		t.Fatalf("expected sanitized file name in key, got %s", store.putKey)
	}
	if store.putType != "image/png" {
		t.Fatalf("expected sniffed content type image/png, got %s", store.putType)
	}
	if url != store.PublicURL(store.putKey) {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploadRejectsNonImageContent(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	svc := newTestService(t, store)

	_, err := svc.Upload(context.Background(), []byte("%PDF-1.4 not an image"), "doc.pdf")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.putKey != "" {
		t.Fatal("rejected content must not reach storage")
	}
}

func TestUploadFailureReturnsNoURL(t *testing.T) {
	t.Parallel()

	store := &stubStore{putErr: errors.New("transport down")}
	svc := newTestService(t, store)

	url, err := svc.Upload(context.Background(), pngBytes, "img.png")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if url != "" {
		t.Fatalf("failed upload must not return a url, got %s", url)
	}
}

func TestPurgeSwallowsFailures(t *testing.T) {
	t.Parallel()

	store := &stubStore{deleteErr: errors.New("transient")}
	svc := newTestService(t, store)

	svc.Purge(context.Background(), "https://storage.googleapis.com/test-bucket/products/x/img.png")
	if store.deleteKey != "products/x/img.png" {
		t.Fatalf("expected derived key, got %s", store.deleteKey)
	}

	// A foreign URL never reaches the store.
	svc.Purge(context.Background(), "https://elsewhere.example.com/img.png")
	if store.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", store.deleteCalls)
	}
}
