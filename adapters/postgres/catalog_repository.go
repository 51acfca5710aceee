package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"molview/domain/core"
	"molview/domain/molecule"
	apperrors "molview/internal/errors"
	"molview/ports"
)

// catalogRepository implements the CatalogRepository interface
type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new upload-catalog repository
func NewCatalogRepository(db *sqlx.DB) ports.CatalogRepository {
	return &catalogRepository{db: db}
}

// EnsureSchema creates the catalog table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS upload_catalog (
		id              TEXT PRIMARY KEY,
		source_filename TEXT NOT NULL,
		format          TEXT NOT NULL,
		file_size       BIGINT NOT NULL,
		record_count    INTEGER NOT NULL,
		column_count    INTEGER NOT NULL,
		skipped_records INTEGER NOT NULL,
		loaded_at       TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return apperrors.DatabaseError(err, "failed to ensure upload_catalog schema")
	}
	return nil
}

// Record inserts one upload into the catalog
func (r *catalogRepository) Record(ctx context.Context, ds *molecule.Dataset) error {
	query := `INSERT INTO upload_catalog (
		id, source_filename, format, file_size, record_count, column_count, skipped_records, loaded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		ds.ID, ds.SourceFilename, string(ds.Format), ds.FileSize,
		ds.RecordCount(), len(ds.Columns), ds.SkippedRecords, ds.LoadedAt,
	)
	if err != nil {
		return apperrors.DatabaseError(err, "failed to record upload")
	}
	return nil
}

// GetByID retrieves one catalog entry by dataset ID
func (r *catalogRepository) GetByID(ctx context.Context, id core.DatasetID) (*ports.CatalogEntry, error) {
	query := `SELECT id, source_filename, format, file_size, record_count, column_count, skipped_records, loaded_at
	FROM upload_catalog WHERE id = $1`

	var entry ports.CatalogEntry
	err := r.db.GetContext(ctx, &entry, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("catalog entry", id.String())
		}
		return nil, apperrors.DatabaseError(err, "failed to get catalog entry")
	}
	return &entry, nil
}

// ListRecent returns the newest catalog entries, most recent first
func (r *catalogRepository) ListRecent(ctx context.Context, limit int) ([]ports.CatalogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, source_filename, format, file_size, record_count, column_count, skipped_records, loaded_at
	FROM upload_catalog ORDER BY loaded_at DESC LIMIT $1`

	var entries []ports.CatalogEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, apperrors.DatabaseError(err, "failed to list catalog entries")
	}
	return entries, nil
}
