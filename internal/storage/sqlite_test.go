package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/docvalues"
	"github.com/hyperjump/fastcos/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_SegmentCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	seg, err := store.CreateSegment(ctx, []*models.DocumentInput{
		{ID: "a", Name: "first", Vectors: map[string][]float64{"vec": {0.1, 0.2}}},
		{Name: "second"},
	}, codec.Default)
	if err != nil {
		t.Fatal(err)
	}
	if seg.ID == "" || seg.DocCount != 2 {
		t.Fatalf("unexpected segment %+v", seg)
	}

	got, err := store.GetSegment(ctx, seg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DocCount != 2 {
		t.Errorf("doc count = %d, want 2", got.DocCount)
	}

	docs, err := store.ListDocuments(ctx, seg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].DocID != 0 || docs[0].ID != "a" || docs[0].Name != "first" {
		t.Errorf("doc 0 = %+v", docs[0])
	}
	if docs[1].DocID != 1 || docs[1].ID == "" {
		t.Errorf("doc 1 should get a generated id, got %+v", docs[1])
	}

	doc, err := store.GetDocument(ctx, seg.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "second" {
		t.Errorf("name = %q, want second", doc.Name)
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	segs, err := store.ListSegments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Errorf("expected 1 segment, got %d", len(segs))
	}

	if err := store.DeleteSegment(ctx, seg.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSegment(ctx, seg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := store.GetDocument(ctx, seg.ID, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected documents to be deleted, got %v", err)
	}
	values, err := store.BinaryValues(ctx, seg.ID, "vec")
	if err != nil {
		t.Fatal(err)
	}
	if values != nil {
		t.Error("expected doc values to be deleted")
	}
	if err := store.DeleteSegment(ctx, seg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_CreateSegmentRejectsBadInput(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name string
		docs []*models.DocumentInput
	}{
		{"empty", nil},
		{"nil doc", []*models.DocumentInput{nil}},
		{"empty vector", []*models.DocumentInput{{Vectors: map[string][]float64{"vec": {}}}}},
		{"bad base64", []*models.DocumentInput{{EncodedVectors: map[string]string{"vec": "%%"}}}},
		{"duplicate field", []*models.DocumentInput{{
			Vectors:        map[string][]float64{"vec": {1}},
			EncodedVectors: map[string]string{"vec": codec.Default.FormatBase64Vector([]float64{1})},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.CreateSegment(ctx, tt.docs, codec.Default); err == nil {
				t.Error("expected error")
			}
		})
	}

	segs, err := store.ListSegments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 0 {
		t.Errorf("failed writes should roll back, found %d segments", len(segs))
	}
}

func TestSQLiteStorage_BinaryValues(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	seg, err := store.CreateSegment(ctx, []*models.DocumentInput{
		{Name: "zero"},
		{Name: "one", Vectors: map[string][]float64{"vec": {0.1, 0.2}}},
		{Name: "two"},
		{Name: "three", EncodedVectors: map[string]string{"vec": codec.Default.FormatBase64Vector([]float64{3, 4})}},
	}, codec.Default)
	if err != nil {
		t.Fatal(err)
	}

	missing, err := store.BinaryValues(ctx, seg.ID, "other")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil accessor for a field without values")
	}

	values, err := store.BinaryValues(ctx, seg.ID, "vec")
	if err != nil {
		t.Fatal(err)
	}
	defer values.Close()

	if values.DocID() != docvalues.NoDoc {
		t.Errorf("initial doc = %d, want NoDoc", values.DocID())
	}

	want := map[int][]float64{1: {0.1, 0.2}, 3: {3, 4}}
	for doc := 0; doc < 6; doc++ {
		ok, err := values.AdvanceExact(doc)
		if err != nil {
			t.Fatalf("doc %d: %v", doc, err)
		}
		if values.DocID() != doc {
			t.Errorf("doc id = %d, want %d", values.DocID(), doc)
		}
		expected, has := want[doc]
		if ok != has {
			t.Fatalf("doc %d: has value = %v, want %v", doc, ok, has)
		}
		if !ok {
			if _, err := values.BinaryValue(); err == nil {
				t.Errorf("doc %d: expected error reading missing value", doc)
			}
			continue
		}
		raw, err := values.BinaryValue()
		if err != nil {
			t.Fatal(err)
		}
		got, err := codec.Default.Decode(raw, len(expected), nil)
		if err != nil {
			t.Fatal(err)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("doc %d component %d = %v, want %v", doc, i, got[i], expected[i])
			}
		}
	}

	if _, err := values.AdvanceExact(2); !errors.Is(err, docvalues.ErrBackwardAdvance) {
		t.Errorf("expected ErrBackwardAdvance, got %v", err)
	}
}

func TestRowValues_SkipsAhead(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	docs := make([]*models.DocumentInput, 10)
	for i := range docs {
		docs[i] = &models.DocumentInput{Vectors: map[string][]float64{"vec": {float64(i)}}}
	}
	seg, err := store.CreateSegment(ctx, docs, codec.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}

	values, err := store.BinaryValues(ctx, seg.ID, "vec")
	if err != nil {
		t.Fatal(err)
	}
	defer values.Close()

	ok, err := values.AdvanceExact(7)
	if err != nil || !ok {
		t.Fatalf("advance to 7: ok=%v err=%v", ok, err)
	}
	raw, _ := values.BinaryValue()
	got, err := codec.LittleEndian.Decode(raw, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 7 {
		t.Errorf("value = %v, want 7", got[0])
	}

	ok, err = values.AdvanceExact(20)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("doc 20 should have no value")
	}
}
