package storage

import (
	"context"
	"time"

	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/observability"
)

// InstrumentedStore records the latency of every operation on the wrapped store
type InstrumentedStore struct {
	inner   providers.StorageProvider
	backend string
	metrics *observability.Metrics
}

// Instrument wraps inner so each call is timed under the given backend label
func Instrument(inner providers.StorageProvider, backend string, metrics *observability.Metrics) providers.StorageProvider {
	if metrics == nil {
		return inner
	}
	return &InstrumentedStore{inner: inner, backend: backend, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op string, start time.Time) {
	observability.RecordStorageMetric(ctx, s.metrics, s.backend, op, time.Since(start))
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (string, error) {
	defer s.observe(ctx, "get", time.Now())
	return s.inner.Get(ctx, key)
}

func (s *InstrumentedStore) Set(ctx context.Context, key string, value string) error {
	defer s.observe(ctx, "set", time.Now())
	return s.inner.Set(ctx, key, value)
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	defer s.observe(ctx, "delete", time.Now())
	return s.inner.Delete(ctx, key)
}

func (s *InstrumentedStore) Exists(ctx context.Context, key string) (bool, error) {
	defer s.observe(ctx, "exists", time.Now())
	return s.inner.Exists(ctx, key)
}

func (s *InstrumentedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	defer s.observe(ctx, "keys", time.Now())
	return s.inner.Keys(ctx, prefix)
}
