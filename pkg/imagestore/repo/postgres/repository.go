package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements imagestore.Catalog using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL catalog
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL catalog with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors onto catalog semantics
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			// An upload record for this (owner, fingerprint) already
			// exists; the catalog keeps the original row.
			return nil
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return imagestore.ErrObjectNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// RecordUpload stores an upload record. Re-recording the same
// (owner, fingerprint) pair keeps the original row.
func (r *Repository) RecordUpload(ctx context.Context, record *imagestore.UploadRecord) error {
	query := `
		INSERT INTO upload_record (
			id, owner_id, fingerprint, object_key, file_name,
			mime_type, size_bytes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, fingerprint) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.Owner, string(record.Fingerprint), record.ObjectKey,
		record.FileName, record.MimeType, record.SizeBytes, record.CreatedAt)

	if err != nil {
		return r.handlePostgresError("record upload", err)
	}

	return nil
}

// GetUpload returns the record for (owner, fingerprint)
func (r *Repository) GetUpload(ctx context.Context, owner string, fingerprint imagestore.Fingerprint) (*imagestore.UploadRecord, error) {
	query := `
		SELECT id, owner_id, fingerprint, object_key, file_name,
		       mime_type, size_bytes, created_at
		FROM upload_record
		WHERE owner_id = $1 AND fingerprint = $2`

	var record imagestore.UploadRecord
	var fp string
	err := r.db.QueryRow(ctx, query, owner, string(fingerprint)).Scan(
		&record.ID, &record.Owner, &fp, &record.ObjectKey,
		&record.FileName, &record.MimeType, &record.SizeBytes, &record.CreatedAt)
	if err != nil {
		return nil, r.handlePostgresError("get upload", err)
	}
	record.Fingerprint = imagestore.Fingerprint(fp)

	return &record, nil
}

// ListUploads returns all records for an owner, newest first
func (r *Repository) ListUploads(ctx context.Context, owner string) ([]*imagestore.UploadRecord, error) {
	query := `
		SELECT id, owner_id, fingerprint, object_key, file_name,
		       mime_type, size_bytes, created_at
		FROM upload_record
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, r.handlePostgresError("list uploads", err)
	}
	defer rows.Close()

	var records []*imagestore.UploadRecord
	for rows.Next() {
		var record imagestore.UploadRecord
		var fp string
		if err := rows.Scan(
			&record.ID, &record.Owner, &fp, &record.ObjectKey,
			&record.FileName, &record.MimeType, &record.SizeBytes, &record.CreatedAt); err != nil {
			return nil, r.handlePostgresError("list uploads", err)
		}
		record.Fingerprint = imagestore.Fingerprint(fp)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list uploads", err)
	}

	return records, nil
}
