// Package sqlite is the default persistent vector store: a single SQLite
// database inside the store directory. Presence of the directory is what
// separates "needs init" from "ready to query"; deleting it resets the
// system. Search is a linear cosine scan, which is plenty for a few thousand
// chunks.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pdfrag/internal/domain"
	"pdfrag/internal/vectorstore"
)

const dbFileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT    NOT NULL,
	page        INTEGER NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT    NOT NULL,
	vector      BLOB    NOT NULL
);
`

// Store is a SQLite-backed vector store.
type Store struct {
	db  *sqlx.DB
	dir string
}

// Open opens an existing store directory for querying. Returns
// domain.ErrStoreNotInitialized when the directory does not exist.
func Open(dir string) (*Store, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w (%s)", domain.ErrStoreNotInitialized, dir)
	}
	return connect(dir)
}

// Create opens the store directory for building, creating it if needed.
func Create(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return connect(dir)
}

func connect(dir string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize store schema: %w", err)
	}
	return &Store{db: db, dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Init records the embedding model and vector dimension in the meta table.
func (s *Store) Init(ctx context.Context, model string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	const q = `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, q, "embedding_model", model); err != nil {
		return fmt.Errorf("record embedding model: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, "dimension", fmt.Sprintf("%d", dimension)); err != nil {
		return fmt.Errorf("record dimension: %w", err)
	}
	return nil
}

// Append bulk-inserts entries inside one transaction. Insertion order is
// preserved through the autoincrement id, which is also the search
// tie-breaker.
func (s *Store) Append(ctx context.Context, entries []domain.Entry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (source, page, chunk_index, content, vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.Chunk.Source, e.Chunk.Page, e.Chunk.Index, e.Chunk.Text, encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("insert entry %s:%d:%d: %w", e.Chunk.Source, e.Chunk.Page, e.Chunk.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

type entryRow struct {
	ID         int64  `db:"id"`
	Source     string `db:"source"`
	Page       int    `db:"page"`
	ChunkIndex int    `db:"chunk_index"`
	Content    string `db:"content"`
	Vector     []byte `db:"vector"`
}

// Search scans every stored vector and returns the k nearest by cosine
// similarity, ties broken by insertion order.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 4
	}
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, source, page, chunk_index, content, vector FROM entries ORDER BY id`); err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}

	type scored struct {
		row   int
		score float64
	}
	scores := make([]scored, len(rows))
	for i := range rows {
		scores[i] = scored{row: i, score: vectorstore.Cosine(decodeVector(rows[i].Vector), vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]domain.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		r := rows[scores[i].row]
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{Source: r.Source, Page: r.Page, Index: r.ChunkIndex, Text: r.Content},
			Score: scores[i].score,
		})
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM entries`); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Model returns the embedding model recorded at Init, or "" when the store
// has never been initialized.
func (s *Store) Model(ctx context.Context) (string, error) {
	var model string
	err := s.db.GetContext(ctx, &model, `SELECT value FROM meta WHERE key = ?`, "embedding_model")
	if errors.Is(err, sql.ErrNoRows) {
		// a store that was created but never built
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read store metadata: %w", err)
	}
	return model, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// encodeVector packs float32 components as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
