package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers/mocks"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

var adminUser = entities.User{Name: "Root", Email: "admin@x.com", Role: entities.RoleAdmin}

func reviewFixture(api *mocks.TravelAPI) {
	pending := entities.TravelPackage{ID: "p9", Title: "Goa Trip", Status: entities.PackageStatusPending}
	api.On("ListPendingPackages", mock.Anything, "tok").Return([]entities.TravelPackage{pending}, nil)
	api.On("ListAllPackages", mock.Anything, "tok").Return([]entities.TravelPackage{
		pending,
		{ID: "p1", Title: "Manali", Status: entities.PackageStatusApproved},
		{ID: "p2", Title: "Ooty", Status: entities.PackageStatusRejected},
	}, nil)
}

func TestAdminService_Board(t *testing.T) {
	api := new(mocks.TravelAPI)
	reviewFixture(api)

	board := NewAdminService(api, nil).Board(context.Background(), signedIn(storage.NewMemoryStore(), adminUser, "tok"))

	assert.Equal(t, []string{"p9"}, ids(board.Pending))
	assert.Equal(t, []string{"p1"}, ids(board.Approved))
	assert.Equal(t, []string{"p2"}, ids(board.Rejected))
	assert.Empty(t, board.Warnings)
}

func TestAdminService_BoardDegrades(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("ListPendingPackages", mock.Anything, "tok").Return(nil, apperrors.NewExternalError("down", nil))
	api.On("ListAllPackages", mock.Anything, "tok").Return(nil, apperrors.NewExternalError("down", nil))

	board := NewAdminService(api, nil).Board(context.Background(), signedIn(storage.NewMemoryStore(), adminUser, "tok"))

	assert.Empty(t, board.Pending)
	assert.Empty(t, board.Approved)
	assert.Empty(t, board.Rejected)
	assert.Len(t, board.Warnings, 2)
}

func TestAdminService_Approve(t *testing.T) {
	api := new(mocks.TravelAPI)
	reviewFixture(api)
	api.On("ApprovePackage", mock.Anything, "tok", "p9").Return(&entities.TravelPackage{ID: "p9", Title: "Goa Trip", Status: entities.PackageStatusApproved}, nil)

	res, err := NewAdminService(api, nil).Approve(context.Background(), signedIn(storage.NewMemoryStore(), adminUser, "tok"), "p9")
	require.NoError(t, err)

	assert.Equal(t, `Package "Goa Trip" approved!`, res.Message)
	assert.Empty(t, res.Board.Pending)
	assert.Equal(t, []string{"p1", "p9"}, ids(res.Board.Approved))
	api.AssertExpectations(t)
}

func TestAdminService_Reject(t *testing.T) {
	api := new(mocks.TravelAPI)
	reviewFixture(api)
	api.On("RejectPackage", mock.Anything, "tok", "p9").Return(nil, nil)

	res, err := NewAdminService(api, nil).Reject(context.Background(), signedIn(storage.NewMemoryStore(), adminUser, "tok"), "p9")
	require.NoError(t, err)

	assert.Equal(t, `Package "Goa Trip" rejected.`, res.Message)
	assert.Equal(t, entities.PackageStatusRejected, res.Package.Status)
	assert.Equal(t, []string{"p2", "p9"}, ids(res.Board.Rejected))
}

func TestAdminService_ReviewGuards(t *testing.T) {
	api := new(mocks.TravelAPI)
	reviewFixture(api)
	svc := NewAdminService(api, nil)
	sess := signedIn(storage.NewMemoryStore(), adminUser, "tok")

	_, err := svc.Approve(context.Background(), sess, "p1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	_, err = svc.Reject(context.Background(), sess, "p2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	_, err = svc.Approve(context.Background(), sess, "ghost")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	api.AssertNotCalled(t, "ApprovePackage", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "RejectPackage", mock.Anything, mock.Anything, mock.Anything)
}
