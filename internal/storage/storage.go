// Package storage defines the persistence interface for segments, documents, and doc values.
package storage

import (
	"context"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/models"
)

// Storage defines segment persistence operations.
type Storage interface {
	// Segment operations
	CreateSegment(ctx context.Context, docs []*models.DocumentInput, c codec.Codec) (*models.Segment, error)
	GetSegment(ctx context.Context, id string) (*models.Segment, error)
	ListSegments(ctx context.Context) ([]*models.Segment, error)
	DeleteSegment(ctx context.Context, id string) error

	// Document operations
	GetDocument(ctx context.Context, segment string, docID int) (*models.Document, error)
	ListDocuments(ctx context.Context, segment string) ([]*models.Document, error)

	// BinaryValues opens the doc values of field in segment. It returns nil when the
	// segment holds no value for field. The caller must close the result.
	BinaryValues(ctx context.Context, segment, field string) (*RowValues, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
