package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// GetJSON decodes the value under key into out. It reports false when the key is absent.
func GetJSON(ctx context.Context, store providers.StorageProvider, key string, out interface{}) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", key), err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("corrupt value under %s", key), err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, store providers.StorageProvider, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", key), err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}
