package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/config"
	"github.com/hyperjump/fastcos/internal/engine"
	"github.com/hyperjump/fastcos/internal/keyword"
	"github.com/hyperjump/fastcos/internal/metrics"
	"github.com/hyperjump/fastcos/internal/models"
	"github.com/hyperjump/fastcos/internal/scoring"
	"github.com/hyperjump/fastcos/internal/search"
	"github.com/hyperjump/fastcos/internal/storage"
	"github.com/hyperjump/fastcos/internal/vector"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	names, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = names.Close() })

	reg := prometheus.NewRegistry()
	registry := engine.NewRegistry(engine.NewFastCosine(&scoring.Compiler{
		Codec:       codec.Default,
		DefaultMode: vector.ModeCosine,
		Cache:       scoring.NewQueryCache(8),
	}))
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	eng := search.NewEngine(store, names, registry, codec.Default, &cfg.Search,
		search.WithMetrics(metrics.NewSearchMetrics(reg)))
	srv := NewServer(eng, store, &cfg.Server, zap.NewNop(), WithMetrics(reg), WithSettings(cfg))
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func createSegment(t *testing.T, h http.Handler) *models.Segment {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/segments", models.IndexRequest{Documents: []*models.DocumentInput{
		{ID: "a", Name: "first doc", Vectors: map[string][]float64{"vec": {0.1, 0.2}}},
		{ID: "b", Name: "second doc", EncodedVectors: map[string]string{"vec": codec.Default.FormatBase64Vector([]float64{0.2, 0.1})}},
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create segment: status %d body %s", w.Code, w.Body.String())
	}
	var seg models.Segment
	if err := json.NewDecoder(w.Body).Decode(&seg); err != nil {
		t.Fatal(err)
	}
	return &seg
}

func searchBody(query []float64, extra map[string]interface{}) map[string]interface{} {
	params := map[string]interface{}{
		"field":          "vec",
		"encoded_vector": codec.Default.FormatBase64Vector(query),
	}
	for k, v := range extra {
		params[k] = v
	}
	return map[string]interface{}{
		"script": map[string]interface{}{"lang": "fast_cosine", "source": "staysense", "params": params},
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestSegmentLifecycle(t *testing.T) {
	h := newTestServer(t)
	seg := createSegment(t, h)
	if seg.DocCount != 2 {
		t.Errorf("doc count: got %d", seg.DocCount)
	}

	w := do(t, h, http.MethodGet, "/api/v1/segments", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), seg.ID) {
		t.Errorf("list segments: status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/segments/"+seg.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get segment: status %d", w.Code)
	}
	var got struct {
		Segment   models.Segment     `json:"segment"`
		Documents []*models.Document `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Documents) != 2 || got.Documents[1].ID != "b" {
		t.Errorf("unexpected documents %+v", got.Documents)
	}

	w = do(t, h, http.MethodGet, "/api/v1/segments/"+seg.ID+"/documents/1", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "second doc") {
		t.Errorf("get document: status %d body %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/v1/segments/"+seg.ID+"/documents/x", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad doc id: status %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, "/api/v1/segments/"+seg.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete: status %d body %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/v1/segments/"+seg.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d", w.Code)
	}
	w = do(t, h, http.MethodDelete, "/api/v1/segments/"+seg.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d", w.Code)
	}
}

func TestHandleCreateSegment_BadRequests(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name string
		body interface{}
	}{
		{"not json", "{"},
		{"no documents", map[string]interface{}{"documents": []interface{}{}}},
		{"empty vector", models.IndexRequest{Documents: []*models.DocumentInput{{Vectors: map[string][]float64{"vec": {}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/segments", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	h := newTestServer(t)
	createSegment(t, h)

	body := searchBody([]float64{0.2, 0.1}, nil)
	body["explain"] = true
	w := do(t, h, http.MethodPost, "/api/v1/search", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(resp.Hits))
	}
	if resp.Hits[0].ID != "b" || resp.Hits[1].ID != "a" {
		t.Errorf("unexpected order: %s, %s", resp.Hits[0].ID, resp.Hits[1].ID)
	}
	if d := resp.Hits[1].Score - 0.8; d > 1e-9 || d < -1e-9 {
		t.Errorf("score of a = %v, want 0.8", resp.Hits[1].Score)
	}
	if resp.Hits[0].Explanation == nil || !strings.HasPrefix(resp.Hits[0].Explanation.Description, "cosineSimilarity") {
		t.Errorf("missing explanation: %+v", resp.Hits[0].Explanation)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	h := newTestServer(t)
	createSegment(t, h)

	unknownSource := searchBody([]float64{1, 0}, nil)
	unknownSource["script"].(map[string]interface{})["source"] = "nope"

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"not json", "nope", http.StatusBadRequest},
		{"missing params", map[string]interface{}{"script": map[string]interface{}{}}, http.StatusBadRequest},
		{"missing field", map[string]interface{}{"script": map[string]interface{}{"params": map[string]interface{}{"encoded_vector": "AAAA"}}}, http.StatusBadRequest},
		{"unknown source", unknownSource, http.StatusBadRequest},
		{"shape mismatch", searchBody([]float64{1, 0, 0}, nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/search", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleStatusAndMetrics(t *testing.T) {
	h := newTestServer(t)
	createSegment(t, h)
	do(t, h, http.MethodPost, "/api/v1/search", searchBody([]float64{1, 0}, nil))

	w := do(t, h, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status["documents"].(float64) != 2 || status["segments"].(float64) != 1 {
		t.Errorf("unexpected status %+v", status)
	}

	w = do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fastcos_searches_total") {
		t.Error("metrics should include the search counter")
	}
}
