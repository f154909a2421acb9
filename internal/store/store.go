// Package store handles SQLite persistence of imported tab documents.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/tabprompt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the document library.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			tuning TEXT NOT NULL,
			tempo INTEGER,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertDocument stores doc, remembering the file it came from. A document
// whose source was already imported replaces the earlier copy in place so
// re-importing a file does not duplicate it. It returns the id now stored
// for that source.
func (s *Store) InsertDocument(ctx context.Context, doc model.Document, source string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var tempo sql.NullInt64
	if doc.HasTempo() {
		tempo = sql.NullInt64{Int64: int64(doc.Tempo), Valid: true}
	}

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE source = ? AND source <> ''`, source).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, title, artist, tuning, tempo, content, created_at, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID,
			doc.Title,
			doc.Artist,
			doc.Tuning,
			tempo,
			doc.Content,
			doc.CreatedAt.Format(time.RFC3339Nano),
			source,
		)
		if err != nil {
			return "", err
		}
		existing = doc.ID
	case err != nil:
		return "", err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET title = ?, artist = ?, tuning = ?, tempo = ?, content = ?
			 WHERE id = ?`,
			doc.Title,
			doc.Artist,
			doc.Tuning,
			tempo,
			doc.Content,
			existing,
		)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return existing, nil
}

// ListDocuments returns every stored document in import order.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, tuning, tempo, content, created_at
		 FROM documents
		 ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		var tempo sql.NullInt64
		var createdAt string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Artist, &doc.Tuning, &tempo, &doc.Content, &createdAt); err != nil {
			return nil, err
		}
		if tempo.Valid {
			doc.Tempo = int(tempo.Int64)
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		doc.CreatedAt = parsed
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document by id. It reports whether a row was
// removed.
func (s *Store) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
