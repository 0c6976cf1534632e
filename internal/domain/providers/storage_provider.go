package providers

import (
	"context"
	"errors"
	"strings"
)

// ErrKeyNotFound is returned by StorageProvider.Get for a missing key
var ErrKeyNotFound = errors.New("key not found")

// StorageProvider is the persistent client store. Values are opaque strings,
// normally JSON. Writes are last-writer-wins.
type StorageProvider interface {
	// Get retrieves a value, or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value, replacing any previous one
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if a key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Keys lists every key that starts with prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Keys persisted in the client store. They are part of the external contract.
const (
	KeyUser              = "ts_user"
	KeyToken             = "ts_token"
	KeyPublicPackages    = "public_packages"
	KeyPackagesCacheTime = "packages_cache_time"

	BookingsKeyPrefix      = "ts_bookings_"
	AgentBookingsKeyPrefix = "agent_bookings_"
	AgentPackagesKeyPrefix = "agent_packages_"

	guestPartition = "guest"
)

// BookingsKey is the partition holding the bookings of email, or of guests when email is empty.
func BookingsKey(email string) string {
	if email == "" {
		return BookingsKeyPrefix + guestPartition
	}
	return BookingsKeyPrefix + email
}

// AgentBookingsKey caches the bookings made against an agent's packages.
func AgentBookingsKey(email string) string {
	return AgentBookingsKeyPrefix + email
}

// AgentPackagesKey remembers the packages an agent submitted from this client.
func AgentPackagesKey(email string) string {
	return AgentPackagesKeyPrefix + email
}

// CustomerFromBookingsKey recovers the owner encoded in a bookings key.
func CustomerFromBookingsKey(key string) string {
	return strings.TrimPrefix(key, BookingsKeyPrefix)
}
