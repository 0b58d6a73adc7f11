package recall

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Register the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// Schema creates the table SQLiteSource reads. Row id order is the match order.
const Schema = `CREATE TABLE IF NOT EXISTS recalls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    product_name TEXT NOT NULL,
    recall_reason TEXT,
    identification_info TEXT,
    url TEXT
);
CREATE INDEX IF NOT EXISTS recalls_product_name ON recalls (product_name);`

// findFirstQuery relies on SQLite's default BINARY collation for a case-sensitive match.
const findFirstQuery = `SELECT product_name, recall_reason, identification_info, url
FROM recalls
WHERE product_name = ?
ORDER BY id
LIMIT 1`

// SQLiteSource reads records from a SQLite snapshot.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens the snapshot database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// FindFirst implements Source.
func (s *SQLiteSource) FindFirst(ctx context.Context, productName string) (*domain.RecallRecord, error) {
	var (
		doc                            record
		reason, identification, rawURL sql.NullString
	)

	err := s.db.QueryRowContext(ctx, findFirstQuery, productName).
		Scan(&doc.ProductName, &reason, &identification, &rawURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // No matching record.
	}

	if err != nil {
		return nil, fmt.Errorf("query sqlite registry: %w", err)
	}

	doc.RecallReason = reason.String
	doc.IdentificationInfo = identification.String
	doc.URL = rawURL.String

	return doc.toDomain(), nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}
