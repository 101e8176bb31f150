// Package sqlite provides the SQLite-backed page bookkeeping store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bookrag-labs/bookrag-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store keeps one row per ingested page. The page text itself lives in the
// vector index; this store only answers "has this URL been ingested, and as
// how many chunks".
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bookrag/data/pages.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pages.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SavePage stores or replaces the record for a page, keyed by source URL.
func (s *Store) SavePage(ctx context.Context, rec driven.PageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, source_url, page_title, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			id = excluded.id,
			page_title = excluded.page_title,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at
	`, rec.ID, rec.SourceURL, rec.PageTitle, rec.ChunkCount, rec.IngestedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving page: %w", err)
	}
	return nil
}

// PageByURL returns the record for a source URL, or nil when the page has
// not been ingested.
func (s *Store) PageByURL(ctx context.Context, url string) (*driven.PageRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, page_title, chunk_count, ingested_at
		FROM pages WHERE source_url = ?
	`, url)

	rec, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}
	return rec, nil
}

// ListPages returns all records ordered by source URL.
func (s *Store) ListPages(ctx context.Context) ([]driven.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_url, page_title, chunk_count, ingested_at
		FROM pages ORDER BY source_url
	`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var records []driven.PageRecord
	for rows.Next() {
		rec, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}
	return records, nil
}

// DeletePage removes a record by id.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	return nil
}

// Stats returns page and chunk counts.
func (s *Store) Stats(ctx context.Context) (driven.StoreStats, error) {
	var stats driven.StoreStats
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(chunk_count), 0) FROM pages")
	if err := row.Scan(&stats.Pages, &stats.TotalChunks); err != nil {
		return driven.StoreStats{}, fmt.Errorf("reading stats: %w", err)
	}
	return stats, nil
}

// scanner abstracts sql.Row and sql.Rows for scanPage.
type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*driven.PageRecord, error) {
	var rec driven.PageRecord
	var ingestedAt string
	if err := row.Scan(&rec.ID, &rec.SourceURL, &rec.PageTitle, &rec.ChunkCount, &ingestedAt); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, ingestedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing ingested_at: %w", err)
	}
	rec.IngestedAt = ts
	return &rec, nil
}
