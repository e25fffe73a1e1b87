package models

import "github.com/hyperjump/fastcos/internal/scoring"

// SearchHit is a single ranked document.
type SearchHit struct {
	Segment     string               `json:"segment"`
	DocID       int                  `json:"doc_id"`
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Score       float64              `json:"score"`
	Explanation *scoring.Explanation `json:"explanation,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Hits      []*SearchHit `json:"hits"`
	Total     int          `json:"total"`
	MaxScore  float64      `json:"max_score"`
	QueryTime int64        `json:"query_time_ms"`
}
