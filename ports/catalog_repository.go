package ports

import (
	"context"
	"time"

	"molview/domain/core"
	"molview/domain/molecule"
)

// CatalogEntry is the persisted metadata of one upload. Record contents
// stay in memory; the catalog only remembers what was loaded and when.
type CatalogEntry struct {
	ID             core.DatasetID `db:"id"`
	SourceFilename string         `db:"source_filename"`
	Format         string         `db:"format"`
	FileSize       int64          `db:"file_size"`
	RecordCount    int            `db:"record_count"`
	ColumnCount    int            `db:"column_count"`
	SkippedRecords int            `db:"skipped_records"`
	LoadedAt       time.Time      `db:"loaded_at"`
}

// CatalogRepository records upload history. Implementations must be safe
// for concurrent use.
type CatalogRepository interface {
	Record(ctx context.Context, ds *molecule.Dataset) error
	GetByID(ctx context.Context, id core.DatasetID) (*CatalogEntry, error)
	ListRecent(ctx context.Context, limit int) ([]CatalogEntry, error)
}
