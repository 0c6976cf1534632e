package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// AdminBoard is the review queue plus the packages already decided
type AdminBoard struct {
	Pending  []entities.TravelPackage `json:"pending"`
	Approved []entities.TravelPackage `json:"approved"`
	Rejected []entities.TravelPackage `json:"rejected"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// ReviewResult is the board after a decision and the message shown for it
type ReviewResult struct {
	Board   *AdminBoard            `json:"board"`
	Package entities.TravelPackage `json:"package"`
	Message string                 `json:"message"`
}

// AdminService drives package approval
type AdminService struct {
	api    providers.TravelAPI
	events providers.EventBus
}

// NewAdminService creates a new admin service. events may be nil.
func NewAdminService(api providers.TravelAPI, events providers.EventBus) *AdminService {
	return &AdminService{api: api, events: events}
}

// Board loads the pending queue and splits every other package by status.
// A failed load leaves that part of the board empty with a warning.
func (s *AdminService) Board(ctx context.Context, sess *Session) *AdminBoard {
	token := sess.Token()
	board := &AdminBoard{
		Pending:  []entities.TravelPackage{},
		Approved: []entities.TravelPackage{},
		Rejected: []entities.TravelPackage{},
	}

	pending, err := s.api.ListPendingPackages(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load pending packages")
		board.Warnings = append(board.Warnings, "Could not load packages awaiting review")
	} else if pending != nil {
		board.Pending = pending
	}

	all, err := s.api.ListAllPackages(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load reviewed packages")
		board.Warnings = append(board.Warnings, "Could not load reviewed packages")
	} else {
		_, board.Approved, board.Rejected = entities.PartitionByStatus(all)
	}
	return board
}

// Approve publishes a pending package
func (s *AdminService) Approve(ctx context.Context, sess *Session, id string) (*ReviewResult, error) {
	return s.review(ctx, sess, id, entities.PackageStatusApproved)
}

// Reject turns a pending package down
func (s *AdminService) Reject(ctx context.Context, sess *Session, id string) (*ReviewResult, error) {
	return s.review(ctx, sess, id, entities.PackageStatusRejected)
}

// review checks the transition against the board before calling out, then
// moves the package between lists without reloading.
func (s *AdminService) review(ctx context.Context, sess *Session, id string, next entities.PackageStatus) (*ReviewResult, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("package id is required")
	}
	board := s.Board(ctx, sess)

	idx, current, ok := board.find(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("package %s not found", id))
	}
	if !current.Status.CanTransition(next) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("package %s is already %s", id, current.Status))
	}

	var (
		updated *entities.TravelPackage
		err     error
	)
	if next == entities.PackageStatusApproved {
		updated, err = s.api.ApprovePackage(ctx, sess.Token(), id)
	} else {
		updated, err = s.api.RejectPackage(ctx, sess.Token(), id)
	}
	if err != nil {
		return nil, err
	}

	moved := current
	if updated != nil && updated.ID != "" {
		moved = *updated
	}
	moved.Status = next

	board.Pending = append(board.Pending[:idx:idx], board.Pending[idx+1:]...)
	var msg string
	eventType := entities.PackageEventApproved
	if next == entities.PackageStatusApproved {
		board.Approved = append(board.Approved, moved)
		msg = fmt.Sprintf("Package %q approved!", moved.Title)
	} else {
		board.Rejected = append(board.Rejected, moved)
		msg = fmt.Sprintf("Package %q rejected.", moved.Title)
		eventType = entities.PackageEventRejected
	}

	publish(ctx, s.events, id, eventType, sess.Email())
	log.Info().Str("package_id", id).Str("status", string(next)).Msg("package reviewed")
	return &ReviewResult{Board: board, Package: moved, Message: msg}, nil
}

// find locates id on the board. Pending packages are reported with pending status.
func (b *AdminBoard) find(id string) (int, entities.TravelPackage, bool) {
	for i, p := range b.Pending {
		if p.ID == id {
			p.Status = entities.PackageStatusPending
			return i, p, true
		}
	}
	for _, list := range [][]entities.TravelPackage{b.Approved, b.Rejected} {
		for _, p := range list {
			if p.ID == id {
				return -1, p, true
			}
		}
	}
	return -1, entities.TravelPackage{}, false
}
