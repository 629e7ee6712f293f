package index

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const fingerprintKey = "source_fingerprint"

// Store persists index chunks in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the index database at path and applies
// pending migrations.
func OpenStore(path string) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)
	return openDSN(dsn, path)
}

func openDSN(dsn, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping index db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// runMigrations applies the embedded schema; already-applied migrations are
// skipped.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint returns the fingerprint of the source the stored chunks were
// built from, or "" when the store is empty.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	const query = `SELECT value FROM index_meta WHERE key = ?`
	var fp string
	err := s.db.QueryRowContext(ctx, query, fingerprintKey).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read fingerprint: %w", err)
	}
	return fp, nil
}

// Chunks returns the stored chunks in build order.
func (s *Store) Chunks(ctx context.Context) ([]string, error) {
	const query = `SELECT content FROM chunks ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

// Replace swaps the stored chunks and fingerprint in one transaction.
func (s *Store) Replace(ctx context.Context, fingerprint string, chunks []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (seq, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err = stmt.ExecContext(ctx, i, c); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	const upsert = `INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`
	if _, err = tx.ExecContext(ctx, upsert, fingerprintKey, fingerprint); err != nil {
		return fmt.Errorf("store fingerprint: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}
