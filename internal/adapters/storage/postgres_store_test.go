package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/clients/postgres"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(postgres.NewClientFromDB(db))
	store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return store, mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "value" FROM "client_storage" WHERE \("key" = 'ts_user'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"name":"asha"}`))

	value, err := store.Get(context.Background(), "ts_user")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"asha"}`, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissingKey(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "value" FROM "client_storage"`).WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "ts_token")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFailure(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "value" FROM "client_storage"`).WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "ts_token")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestPostgresStore_SetUpserts(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "client_storage" .* ON CONFLICT \(.?key.?\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "ts_token", "jwt-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM "client_storage" WHERE \("key" = 'ts_token'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "ts_token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Exists(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "client_storage"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "client_storage"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := store.Exists(context.Background(), "ts_user")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(context.Background(), "ts_user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_KeysEscapesWildcards(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT "key" FROM "client_storage" WHERE \("key" LIKE 'ts\\_bookings\\_%'\) ORDER BY "key" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).
			AddRow("ts_bookings_asha@trip.io").
			AddRow("ts_bookings_guest"))

	keys, err := store.Keys(context.Background(), providers.BookingsKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"ts_bookings_asha@trip.io", "ts_bookings_guest"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS client_storage`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `client:1:ts\_bookings\_`, escapeLike("client:1:ts_bookings_"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
}
