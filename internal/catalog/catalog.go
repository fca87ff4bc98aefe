// Package catalog keeps a best-effort Postgres record of every ingested
// file. It is optional; a nil *Catalog no-ops everywhere so the pipelines
// never have to care whether it is configured.
package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docqa/internal/config"
)

// IngestionRecord is one row per uploaded file.
type IngestionRecord struct {
	bun.BaseModel `bun:"table:ingestions,alias:i"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Filename      string    `bun:"filename,notnull"`
	SizeBytes     int64     `bun:"size_bytes,notnull"`
	Chunks        int       `bun:"chunks,notnull"`
	Status        string    `bun:"status,notnull"`
	Error         string    `bun:"error"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Catalog struct {
	db *bun.DB
}

// Connect opens the catalog database. Returns nil (no catalog) when no DSN
// is configured.
func Connect(cfg *config.CatalogConfig) (*Catalog, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Catalog{db: db}, nil
}

// Init creates the ingestions table if it does not exist.
func (c *Catalog) Init(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.db.NewCreateTable().Model((*IngestionRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Record inserts one ingestion row.
func (c *Catalog) Record(ctx context.Context, rec *IngestionRecord) error {
	if c == nil {
		return nil
	}
	_, err := c.db.NewInsert().Model(rec).Exec(ctx)
	return err
}

// Recent returns the latest ingestion rows, newest first.
func (c *Catalog) Recent(ctx context.Context, limit int) ([]IngestionRecord, error) {
	if c == nil {
		return nil, nil
	}
	var recs []IngestionRecord
	err := c.db.NewSelect().
		Model(&recs).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return recs, err
}

func (c *Catalog) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
