package storage

import (
	"context"
	"strings"

	"github.com/tripsync/portal/internal/domain/providers"
)

// ScopedStore confines a client to its own partition of a shared store
type ScopedStore struct {
	inner     providers.StorageProvider
	namespace string
}

// Scoped namespaces every key of inner under client:<clientID>:
func Scoped(inner providers.StorageProvider, clientID string) *ScopedStore {
	return &ScopedStore{inner: inner, namespace: "client:" + clientID + ":"}
}

var _ providers.StorageProvider = (*ScopedStore)(nil)

func (s *ScopedStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.namespace+key)
}

func (s *ScopedStore) Set(ctx context.Context, key string, value string) error {
	return s.inner.Set(ctx, s.namespace+key, value)
}

func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.namespace+key)
}

func (s *ScopedStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, s.namespace+key)
}

// Keys returns keys without the client namespace
func (s *ScopedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.inner.Keys(ctx, s.namespace+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, s.namespace))
	}
	return out, nil
}
