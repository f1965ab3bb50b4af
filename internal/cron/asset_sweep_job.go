package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printcraft-co/printcraft-backend/pkg/logger"
	"github.com/printcraft-co/printcraft-backend/pkg/metrics"
	"github.com/printcraft-co/printcraft-backend/pkg/storage/gcs"
)

const (
	assetSweepPrefix           = "products/"
	defaultAssetRetention      = 24 * time.Hour
	defaultAssetSweepBatchSize = 500
)

type assetObjectStore interface {
	List(ctx context.Context, prefix string) ([]gcs.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type assetReferenceRepo interface {
	ListReferencedAssetURLs(ctx context.Context) ([]string, error)
}

// AssetSweepJobParams configure the orphaned asset sweep.
type AssetSweepJobParams struct {
	Logger    *logger.Logger
	Store     assetObjectStore
	Catalog   assetReferenceRepo
	Metrics   *metrics.CronJobMetrics
	Retention time.Duration
	BatchSize int
}

// NewAssetSweepJob builds the job that deletes bucket objects no catalog row
// references anymore. Objects younger than the retention window are left
// alone so an upload racing a sweep is never collected.
func NewAssetSweepJob(params AssetSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultAssetRetention
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultAssetSweepBatchSize
	}
	return &assetSweepJob{
		logg:      params.Logger,
		store:     params.Store,
		catalog:   params.Catalog,
		metrics:   params.Metrics,
		retention: retention,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type assetSweepJob struct {
	logg      *logger.Logger
	store     assetObjectStore
	catalog   assetReferenceRepo
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func (j *assetSweepJob) Name() string { return "asset-sweep" }

func (j *assetSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	urls, err := j.catalog.ListReferencedAssetURLs(ctx)
	if err != nil {
		return fmt.Errorf("list referenced assets: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		referenced[url] = struct{}{}
	}

	objects, err := j.store.List(ctx, assetSweepPrefix)
	if err != nil {
		return fmt.Errorf("list bucket objects: %w", err)
	}

	var swept, skippedYoung int
	for _, object := range objects {
		if swept >= j.batchSize {
			break
		}
		if object.Created.After(cutoff) {
			skippedYoung++
			continue
		}
		if _, ok := referenced[j.store.PublicURL(object.Name)]; ok {
			continue
		}
		if err := j.store.Delete(ctx, object.Name); err != nil {
			if errors.Is(err, gcs.ErrObjectNotFound) {
				continue
			}
			return fmt.Errorf("delete orphaned object %s: %w", object.Name, err)
		}
		swept++
	}

	if j.metrics != nil {
		j.metrics.AddSwept(j.Name(), swept)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"objects":       len(objects),
		"referenced":    len(referenced),
		"swept":         swept,
		"skipped_young": skippedYoung,
	})
	j.logg.Info(logCtx, "asset sweep complete")
	return nil
}
