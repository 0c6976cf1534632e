package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/clients/postgres"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

const clientStorageTable = "client_storage"

const createClientStorageTable = `CREATE TABLE IF NOT EXISTS client_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore persists client state in a key/value table
type PostgresStore struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewPostgresStore creates a new Postgres-backed client store
func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ providers.StorageProvider = (*PostgresStore)(nil)

// EnsureSchema creates the backing table when it does not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB().ExecContext(ctx, createClientStorageTable); err != nil {
		return apperrors.NewStorageError("failed to create client_storage table", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	query, args, err := s.db.From(clientStorageTable).
		Select("value").
		Where(goqu.C("key").Eq(key)).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build client store select", err)
	}

	var value string
	if err := s.client.DB().QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", providers.ErrKeyNotFound
		}
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to read %s", key), err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value string) error {
	now := s.now()
	query, args, err := s.db.Insert(clientStorageTable).
		Rows(goqu.Record{"key": key, "value": value, "updated_at": now}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{"value": value, "updated_at": now})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build client store upsert", err)
	}

	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.db.Delete(clientStorageTable).
		Where(goqu.C("key").Eq(key)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build client store delete", err)
	}

	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to delete %s", key), err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := s.db.From(clientStorageTable).
		Select(goqu.COUNT("*")).
		Where(goqu.C("key").Eq(key)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build client store count", err)
	}

	var count int
	if err := s.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewStorageError(fmt.Sprintf("failed to check %s", key), err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := s.db.From(clientStorageTable).
		Select("key").
		Where(goqu.C("key").Like(escapeLike(prefix) + "%")).
		Order(goqu.C("key").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build client store key scan", err)
	}

	rows, err := s.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to list keys with prefix %s", prefix), err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, apperrors.NewStorageError("failed to scan key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate keys", err)
	}
	return keys, nil
}

// "_" and "%" are LIKE wildcards and every bookings key contains "_".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
