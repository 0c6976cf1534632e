package entities

import (
	"time"

	"github.com/google/uuid"
)

// PackageEventType represents what happened to a package
type PackageEventType string

const (
	PackageEventCreated  PackageEventType = "created"
	PackageEventUpdated  PackageEventType = "updated"
	PackageEventApproved PackageEventType = "approved"
	PackageEventRejected PackageEventType = "rejected"
	PackageEventDeleted  PackageEventType = "deleted"
)

// PackageEvent announces a change that makes cached listings stale
type PackageEvent struct {
	ID        string           `json:"id"`
	PackageID string           `json:"package_id"`
	EventType PackageEventType `json:"event_type"`
	Actor     string           `json:"actor,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewPackageEvent creates a new package event
func NewPackageEvent(packageID string, eventType PackageEventType, actor string) *PackageEvent {
	return &PackageEvent{
		ID:        time.Now().UTC().Format("20060102150405") + "-" + uuid.NewString()[:8],
		PackageID: packageID,
		EventType: eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}
