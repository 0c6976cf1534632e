package services

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// AgentDashboard is a travel partner's packages, customers and earnings
type AgentDashboard struct {
	User             entities.User            `json:"user"`
	Pending          []entities.TravelPackage `json:"pending"`
	Approved         []entities.TravelPackage `json:"approved"`
	Rejected         []entities.TravelPackage `json:"rejected"`
	CustomerBookings []entities.Booking       `json:"customer_bookings"`
	Bookings         []entities.Booking       `json:"bookings"`
	Stats            entities.BookingStats    `json:"stats"`
	CommissionRate   float64                  `json:"commission_rate"`
	Warnings         []string                 `json:"warnings,omitempty"`
}

// AgentService lets travel partners submit and withdraw packages
type AgentService struct {
	api            providers.TravelAPI
	events         providers.EventBus
	commissionRate float64
}

// NewAgentService creates a new agent service. events may be nil.
func NewAgentService(api providers.TravelAPI, events providers.EventBus, commissionRate float64) *AgentService {
	return &AgentService{api: api, events: events, commissionRate: commissionRate}
}

// Submit sends a new package for admin approval
func (s *AgentService) Submit(ctx context.Context, sess *Session, draft entities.PackageDraft) (*entities.TravelPackage, string, error) {
	if err := validateDraft(draft); err != nil {
		return nil, "", err
	}

	email := sess.Email()
	created, err := s.api.CreatePackage(ctx, sess.Token(), draft.ToPackage(email))
	if err != nil {
		return nil, "", err
	}
	if created.Status == "" {
		created.Status = entities.PackageStatusPending
	}
	if created.CreatedBy == "" {
		created.CreatedBy = email
	}

	if err := s.rememberSubmission(ctx, sess, *created); err != nil {
		log.Warn().Err(err).Str("package_id", created.ID).Msg("failed to remember submitted package")
	}
	publish(ctx, s.events, created.ID, entities.PackageEventCreated, email)

	log.Info().Str("package_id", created.ID).Str("agent", email).Msg("package submitted for approval")
	return created, "Package submitted for admin approval!", nil
}

// Update edits one of the agent's packages. The review status is left to the server.
func (s *AgentService) Update(ctx context.Context, sess *Session, id string, draft entities.PackageDraft) (*entities.TravelPackage, string, error) {
	if id == "" {
		return nil, "", apperrors.NewValidationError("package id is required")
	}
	if err := validateDraft(draft); err != nil {
		return nil, "", err
	}

	email := sess.Email()
	changes := draft.ToPackage(email)
	changes.Status = ""
	updated, err := s.api.UpdatePackage(ctx, sess.Token(), id, changes)
	if err != nil {
		return nil, "", err
	}
	if updated.ID == "" {
		updated.ID = id
	}

	if err := s.replaceSubmission(ctx, sess, *updated); err != nil {
		log.Warn().Err(err).Str("package_id", id).Msg("failed to refresh remembered package")
	}
	publish(ctx, s.events, id, entities.PackageEventUpdated, email)
	return updated, "Package updated successfully", nil
}

// Delete withdraws one of the agent's packages
func (s *AgentService) Delete(ctx context.Context, sess *Session, id string) (string, error) {
	if id == "" {
		return "", apperrors.NewValidationError("package id is required")
	}
	if err := s.api.DeletePackage(ctx, sess.Token(), id); err != nil {
		return "", err
	}

	email := sess.Email()
	if err := s.forgetSubmission(ctx, sess, id); err != nil {
		log.Warn().Err(err).Str("package_id", id).Msg("failed to forget deleted package")
	}
	publish(ctx, s.events, id, entities.PackageEventDeleted, email)
	return "Package deleted successfully", nil
}

// Dashboard assembles the agent's packages by status, the bookings customers
// made on this client against them, and the agent's sales figures.
func (s *AgentService) Dashboard(ctx context.Context, sess *Session) (*AgentDashboard, error) {
	user := sess.User()
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("sign in to view the agent dashboard")
	}
	board := &AgentDashboard{User: *user, CommissionRate: s.commissionRate}

	mine := []entities.TravelPackage{}
	all, err := s.api.ListPackages(ctx, providers.PackageQuery{})
	if err != nil {
		log.Warn().Err(err).Str("agent", user.Email).Msg("failed to load agent packages")
		board.Warnings = append(board.Warnings, "Could not load your packages from the server")
	}
	for _, p := range all {
		if p.CreatedBy == user.Email {
			mine = append(mine, p)
		}
	}
	mine = s.withSubmissions(ctx, sess, mine)
	board.Pending, board.Approved, board.Rejected = entities.PartitionByStatus(mine)

	customers, err := customerBookings(ctx, sess.Store(), mine)
	if err != nil {
		log.Warn().Err(err).Str("agent", user.Email).Msg("failed to collect customer bookings")
		customers = []entities.Booking{}
	}
	board.CustomerBookings = customers

	board.Bookings = s.agentBookings(ctx, sess)
	board.Stats = Stats(board.Bookings, s.commissionRate)
	return board, nil
}

// Stats totals bookings and revenue, with commission at rate percent rounded to the nearest unit
func Stats(bookings []entities.Booking, rate float64) entities.BookingStats {
	var revenue float64
	for _, b := range bookings {
		revenue += b.Total
	}
	return entities.BookingStats{
		TotalBookings: len(bookings),
		Revenue:       revenue,
		Commission:    math.Round(revenue * rate / 100),
	}
}

// agentBookings refreshes agent_bookings_<email> from the server when possible
// and otherwise reads the stored copy.
func (s *AgentService) agentBookings(ctx context.Context, sess *Session) []entities.Booking {
	key := providers.AgentBookingsKey(sess.Email())
	if token := sess.Token(); token != "" {
		remote, err := s.api.ListAgentBookings(ctx, token)
		if err == nil {
			if remote == nil {
				remote = []entities.Booking{}
			}
			if err := storage.SetJSON(ctx, sess.Store(), key, remote); err != nil {
				log.Warn().Err(err).Msg("failed to store agent bookings")
			}
			return remote
		}
		log.Debug().Err(err).Msg("agent bookings unavailable remotely, using stored copy")
	}

	bookings := []entities.Booking{}
	if _, err := storage.GetJSON(ctx, sess.Store(), key, &bookings); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stored agent bookings unreadable")
		return []entities.Booking{}
	}
	return bookings
}

// customerBookings scans every ts_bookings_* list in store for bookings of pkgs.
// The customer is taken from the key the list is stored under.
func customerBookings(ctx context.Context, store providers.StorageProvider, pkgs []entities.TravelPackage) ([]entities.Booking, error) {
	ids := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		ids[p.ID] = struct{}{}
	}
	out := []entities.Booking{}
	if len(ids) == 0 {
		return out, nil
	}

	keys, err := store.Keys(ctx, providers.BookingsKeyPrefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		var list []entities.Booking
		if _, err := storage.GetJSON(ctx, store, key, &list); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("skipping unreadable bookings list")
			continue
		}
		customer := providers.CustomerFromBookingsKey(key)
		for _, b := range list {
			if _, ok := ids[b.PackageID]; ok {
				b.CustomerEmail = customer
				out = append(out, b)
			}
		}
	}
	return out, nil
}

// withSubmissions adds packages submitted from this client that the public
// listing does not show yet.
func (s *AgentService) withSubmissions(ctx context.Context, sess *Session, pkgs []entities.TravelPackage) []entities.TravelPackage {
	submitted, err := s.submissions(ctx, sess)
	if err != nil {
		log.Warn().Err(err).Msg("stored submissions unreadable")
		return pkgs
	}
	seen := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		seen[p.ID] = struct{}{}
	}
	for _, p := range submitted {
		if _, ok := seen[p.ID]; !ok {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}

func (s *AgentService) submissions(ctx context.Context, sess *Session) ([]entities.TravelPackage, error) {
	pkgs := []entities.TravelPackage{}
	if _, err := storage.GetJSON(ctx, sess.Store(), providers.AgentPackagesKey(sess.Email()), &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (s *AgentService) rememberSubmission(ctx context.Context, sess *Session, pkg entities.TravelPackage) error {
	pkgs, err := s.submissions(ctx, sess)
	if err != nil {
		pkgs = []entities.TravelPackage{}
	}
	pkgs = append(pkgs, pkg)
	return storage.SetJSON(ctx, sess.Store(), providers.AgentPackagesKey(sess.Email()), pkgs)
}

func (s *AgentService) forgetSubmission(ctx context.Context, sess *Session, id string) error {
	pkgs, err := s.submissions(ctx, sess)
	if err != nil {
		return err
	}
	kept := make([]entities.TravelPackage, 0, len(pkgs))
	for _, p := range pkgs {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(pkgs) {
		return nil
	}
	return storage.SetJSON(ctx, sess.Store(), providers.AgentPackagesKey(sess.Email()), kept)
}

// replaceSubmission swaps in the latest copy of a remembered package, keeping
// its status when the server did not report one.
func (s *AgentService) replaceSubmission(ctx context.Context, sess *Session, pkg entities.TravelPackage) error {
	pkgs, err := s.submissions(ctx, sess)
	if err != nil {
		return err
	}
	for i := range pkgs {
		if pkgs[i].ID != pkg.ID {
			continue
		}
		if pkg.Status == "" {
			pkg.Status = pkgs[i].Status
		}
		if pkg.CreatedBy == "" {
			pkg.CreatedBy = pkgs[i].CreatedBy
		}
		pkgs[i] = pkg
		return storage.SetJSON(ctx, sess.Store(), providers.AgentPackagesKey(sess.Email()), pkgs)
	}
	return nil
}

func validateDraft(draft entities.PackageDraft) error {
	if strings.TrimSpace(draft.Title) == "" || draft.Price <= 0 || draft.Duration <= 0 || strings.TrimSpace(draft.Destination) == "" {
		return apperrors.NewValidationError("Please fill title, price, duration, and travel destination")
	}
	return nil
}

// publish announces a package change. A failed publish only costs freshness.
func publish(ctx context.Context, bus providers.EventBus, packageID string, eventType entities.PackageEventType, actor string) {
	if bus == nil {
		return
	}
	event := entities.NewPackageEvent(packageID, eventType, actor)
	if err := bus.Publish(ctx, providers.EventChannelPackageUpdates, event); err != nil {
		log.Warn().Err(err).Str("package_id", packageID).Str("event_type", string(eventType)).Msg("failed to publish package event")
	}
}
