package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

const productAssetPrefix = "products/"

// ObjectStore is the storage surface the asset manager needs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(assetURL string) (string, error)
}

// Service stores and purges product image binaries.
type Service interface {
	Upload(ctx context.Context, content []byte, fileName string) (string, error)
	Purge(ctx context.Context, assetURL string)
}

type service struct {
	store          ObjectStore
	logg           *logger.Logger
	maxUploadBytes int64
}

// NewService constructs the asset manager backed by the provided object store.
func NewService(store ObjectStore, logg *logger.Logger, maxUploadMB int) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		store:          store,
		logg:           logg,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}, nil
}

var allowedImageMimes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Upload sniffs the content type, stores the bytes under a collision-resistant
// key, and returns the stable public URL. A failed upload returns an error and
// no URL: callers must never persist a reference to content that is not stored.
func (s *service) Upload(ctx context.Context, content []byte, fileName string) (string, error) {
	if len(content) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image content is required")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("image exceeds %d bytes", s.maxUploadBytes))
	}

	detected := mimetype.Detect(content)
	if !isAllowedImageMime(detected.String()) {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported content type %s", detected.String())).
			WithDetails(map[string]any{"detected": detected.String()})
	}

	key := buildAssetKey(uuid.New(), fileName, detected.Extension())
	if err := s.store.Put(ctx, key, detected.String(), content); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload image").
			WithDetails(map[string]any{"step": "asset_upload"})
	}

	return s.store.PublicURL(key), nil
}

// Purge removes the binary behind a stored URL. Failures are logged and
// swallowed: a purge must never block a database mutation that already
// succeeded.
func (s *service) Purge(ctx context.Context, assetURL string) {
	key, err := s.store.KeyFromURL(assetURL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "asset_url", assetURL), "purge: cannot derive object key: "+err.Error())
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "asset_key", key), "purge: delete failed: "+err.Error())
	}
}

func isAllowedImageMime(mime string) bool {
	for _, candidate := range allowedImageMimes {
		if strings.EqualFold(candidate, mime) {
			return true
		}
	}
	return false
}

func buildAssetKey(id uuid.UUID, fileName, fallbackExt string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String() + fallbackExt
	}
	return fmt.Sprintf("%s%s/%s", productAssetPrefix, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
