package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/op/go-logging"
)

// Tables are emptied in this order so relations go before the rows
// they point to.
var cleanupTables = []string{
	"asset_tag_relation",
	"tag",
	"asset",
}

// CleanupResult reports how many rows were deleted from each table.
type CleanupResult struct {
	RowsDeleted map[string]int64 `json:"rows_deleted"`
}

// Cleaner wipes imported assets and tags from the catalog database so
// a full import can start from nothing. It is a separate, explicit
// step. Running an import never calls it.
type Cleaner struct {
	db     *sqlx.DB
	logger *logging.Logger
}

// NewCleaner opens a Postgres connection pool for databaseURL. A
// malformed URL is an error here; nothing is dialed until first use.
func NewCleaner(databaseURL string, logger *logging.Logger) (*Cleaner, error) {
	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog database: %w", err)
	}
	db := sqlx.NewDb(sql.OpenDB(connector), "postgres")
	return NewCleanerWithDB(db, logger), nil
}

func NewCleanerWithDB(db *sqlx.DB, logger *logging.Logger) *Cleaner {
	return &Cleaner{db: db, logger: logger}
}

// Cleanup deletes all rows from the asset, tag and relation tables in
// one transaction. Either every table is emptied or none is.
func (c *Cleaner) Cleanup(ctx context.Context) (*CleanupResult, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot start cleanup transaction: %w", err)
	}
	defer tx.Rollback()

	result := &CleanupResult{RowsDeleted: make(map[string]int64, len(cleanupTables))}
	for _, table := range cleanupTables {
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return nil, fmt.Errorf("cannot delete from %s: %w", table, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("cannot count rows deleted from %s: %w", table, err)
		}
		result.RowsDeleted[table] = rows
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("cannot commit cleanup: %w", err)
	}
	for _, table := range cleanupTables {
		c.logger.Noticef("Catalog cleanup deleted %d rows from %s", result.RowsDeleted[table], table)
	}
	return result, nil
}

func (c *Cleaner) Close() error {
	return c.db.Close()
}
