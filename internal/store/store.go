// Package store persists the codebase index snapshot in SQLite.
//
// The snapshot round-trips every chunk field and per-file content hash
// exactly, so a fresh process can restore the index without re-parsing
// unchanged files. Per-file replacement runs in a transaction: readers of
// a reopened snapshot never see a half-replaced file entry.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"codepilot/internal/extract"
	"codepilot/internal/logging"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	indexed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	path       TEXT NOT NULL,
	name       TEXT,
	kind       TEXT NOT NULL,
	parent     TEXT,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	content    TEXT NOT NULL,
	doc        TEXT,
	imports    TEXT,
	calls      TEXT,
	hash       TEXT NOT NULL,
	FOREIGN KEY (path) REFERENCES files(path) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
CREATE INDEX IF NOT EXISTS idx_chunks_name ON chunks(name);
`

// Store is a SQLite-backed snapshot of the codebase index.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens a snapshot database at the given path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	// modernc sqlite serializes access; a single connection avoids
	// SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply snapshot schema: %w", err)
	}

	logging.Store("snapshot store opened: %s", path)
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceFile replaces one file's hash and chunk list atomically.
func (s *Store) ReplaceFile(ctx context.Context, path, hash string, chunks []extract.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, hash, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, indexed_at = excluded.indexed_at`,
		path, hash, time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert file %s: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", path, err)
	}

	for _, c := range chunks {
		imports, err := json.Marshal(c.Imports)
		if err != nil {
			return fmt.Errorf("marshal imports: %w", err)
		}
		calls, err := json.Marshal(c.Calls)
		if err != nil {
			return fmt.Errorf("marshal calls: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (path, name, kind, parent, start_line, end_line, content, doc, imports, calls, hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Path, c.Name, string(c.Kind), c.Parent, c.StartLine, c.EndLine,
			c.Content, c.Doc, string(imports), string(calls), c.Hash); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace for %s: %w", path, err)
	}
	logging.StoreDebug("replaced %s: %d chunks", path, len(chunks))
	return nil
}

// DeleteFile removes a file and its chunks from the snapshot.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return tx.Commit()
}

// Load reads the full snapshot: path -> hash and path -> chunks.
func (s *Store) Load(ctx context.Context) (map[string]string, map[string][]extract.Chunk, error) {
	hashes := make(map[string]string)
	rows, err := s.db.QueryContext(ctx, `SELECT path, hash FROM files`)
	if err != nil {
		return nil, nil, fmt.Errorf("load files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, nil, fmt.Errorf("scan file row: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate files: %w", err)
	}

	chunks := make(map[string][]extract.Chunk)
	crows, err := s.db.QueryContext(ctx,
		`SELECT path, name, kind, parent, start_line, end_line, content, doc, imports, calls, hash
		 FROM chunks ORDER BY path, start_line`)
	if err != nil {
		return nil, nil, fmt.Errorf("load chunks: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c extract.Chunk
		var kind, importsJSON, callsJSON string
		if err := crows.Scan(&c.Path, &c.Name, &kind, &c.Parent, &c.StartLine, &c.EndLine,
			&c.Content, &c.Doc, &importsJSON, &callsJSON, &c.Hash); err != nil {
			return nil, nil, fmt.Errorf("scan chunk row: %w", err)
		}
		c.Kind = extract.Kind(kind)
		if err := json.Unmarshal([]byte(importsJSON), &c.Imports); err != nil {
			return nil, nil, fmt.Errorf("unmarshal imports: %w", err)
		}
		if err := json.Unmarshal([]byte(callsJSON), &c.Calls); err != nil {
			return nil, nil, fmt.Errorf("unmarshal calls: %w", err)
		}
		chunks[c.Path] = append(chunks[c.Path], c)
	}
	if err := crows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate chunks: %w", err)
	}

	logging.Store("snapshot loaded: %d files", len(hashes))
	return hashes, chunks, nil
}

// Clear drops all persisted state.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}
	logging.Store("snapshot cleared")
	return nil
}
