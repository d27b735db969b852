package cache

import (
	"context"
	"time"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

// BundleCache memoizes analysis bundles keyed by the uploaded file's content
// hash, so re-uploading the same register does not rerun the pipeline.
type BundleCache interface {
	Get(ctx context.Context, key string) (*domain.AnalysisBundle, bool, error)
	Set(ctx context.Context, key string, value *domain.AnalysisBundle, ttl time.Duration) error
}

type NoopBundleCache struct{}

func (NoopBundleCache) Get(_ context.Context, _ string) (*domain.AnalysisBundle, bool, error) {
	return nil, false, nil
}

func (NoopBundleCache) Set(_ context.Context, _ string, _ *domain.AnalysisBundle, _ time.Duration) error {
	return nil
}
