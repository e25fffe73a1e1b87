// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/models"
)

// ErrNotFound is returned when a segment or document does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS segments (
		id TEXT PRIMARY KEY,
		doc_count INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		segment_id TEXT NOT NULL,
		doc_id INTEGER NOT NULL,
		external_id TEXT NOT NULL,
		name TEXT,
		PRIMARY KEY (segment_id, doc_id)
	);

	CREATE TABLE IF NOT EXISTS doc_values (
		segment_id TEXT NOT NULL,
		field TEXT NOT NULL,
		doc_id INTEGER NOT NULL,
		value BLOB NOT NULL,
		PRIMARY KEY (segment_id, field, doc_id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_external_id ON documents(external_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSegment stores docs as a new segment. Doc ids follow input order starting at 0;
// vectors are written with c in the binary doc-value layout.
func (s *SQLiteStorage) CreateSegment(ctx context.Context, docs []*models.DocumentInput, c codec.Codec) (*models.Segment, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("segment must contain at least one document")
	}
	seg := &models.Segment{
		ID:        uuid.NewString(),
		DocCount:  len(docs),
		CreatedAt: time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO segments (id, doc_count, created_at) VALUES (?, ?, ?)`,
		seg.ID, seg.DocCount, seg.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert segment: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (segment_id, doc_id, external_id, name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer docStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO doc_values (segment_id, field, doc_id, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer valueStmt.Close()

	for docID, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("document %d is nil", docID)
		}
		externalID := doc.ID
		if externalID == "" {
			externalID = uuid.NewString()
		}
		if _, err := docStmt.ExecContext(ctx, seg.ID, docID, externalID, doc.Name); err != nil {
			return nil, fmt.Errorf("failed to insert document %d: %w", docID, err)
		}

		values, err := encodeFields(doc, c)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", docID, err)
		}
		for field, value := range values {
			if _, err := valueStmt.ExecContext(ctx, seg.ID, field, docID, value); err != nil {
				return nil, fmt.Errorf("failed to insert doc value %s of document %d: %w", field, docID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return seg, nil
}

func encodeFields(doc *models.DocumentInput, c codec.Codec) (map[string][]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(doc.Vectors)+len(doc.EncodedVectors))
	for field, v := range doc.Vectors {
		out[field] = c.Encode(v)
	}
	for field, encoded := range doc.EncodedVectors {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid base64: %w", field, err)
		}
		out[field] = codec.EncodeRaw(raw)
	}
	return out, nil
}

// GetSegment returns a segment by ID.
func (s *SQLiteStorage) GetSegment(ctx context.Context, id string) (*models.Segment, error) {
	var seg models.Segment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doc_count, created_at FROM segments WHERE id = ?`, id,
	).Scan(&seg.ID, &seg.DocCount, &seg.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("segment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// ListSegments returns all segments, oldest first.
func (s *SQLiteStorage) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_count, created_at FROM segments ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segs []*models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.ID, &seg.DocCount, &seg.CreatedAt); err != nil {
			return nil, err
		}
		segs = append(segs, &seg)
	}
	return segs, rows.Err()
}

// DeleteSegment removes a segment with its documents and doc values.
func (s *SQLiteStorage) DeleteSegment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("segment %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE segment_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_values WHERE segment_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetDocument returns a document by segment and doc id.
func (s *SQLiteStorage) GetDocument(ctx context.Context, segment string, docID int) (*models.Document, error) {
	var doc models.Document
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT segment_id, doc_id, external_id, name FROM documents WHERE segment_id = ? AND doc_id = ?`,
		segment, docID,
	).Scan(&doc.Segment, &doc.DocID, &doc.ID, &name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s/%d: %w", segment, docID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	doc.Name = name.String
	return &doc, nil
}

// ListDocuments returns the documents of a segment ordered by doc id.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, segment string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT segment_id, doc_id, external_id, name FROM documents WHERE segment_id = ? ORDER BY doc_id`,
		segment,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var name sql.NullString
		if err := rows.Scan(&doc.Segment, &doc.DocID, &doc.ID, &name); err != nil {
			return nil, err
		}
		doc.Name = name.String
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// BinaryValues streams the doc values of field in segment in doc id order.
// It returns nil when the segment holds no value for field.
func (s *SQLiteStorage) BinaryValues(ctx context.Context, segment, field string) (*RowValues, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM doc_values WHERE segment_id = ? AND field = ?)`,
		segment, field,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, value FROM doc_values WHERE segment_id = ? AND field = ? ORDER BY doc_id`,
		segment, field,
	)
	if err != nil {
		return nil, err
	}
	return newRowValues(rows), nil
}

// CountDocuments returns the total number of documents across segments.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
