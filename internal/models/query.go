package models

import "fmt"

// Script selects the scoring script and its parameters.
type Script struct {
	Lang   string                 `json:"lang,omitempty"`
	Source string                 `json:"source,omitempty"`
	Params map[string]interface{} `json:"params"`
}

// SearchRequest matches documents by name and ranks them with a script.
type SearchRequest struct {
	// Query is matched against document names; empty matches every document.
	Query     string `json:"query,omitempty"`
	// Fuzziness is the edit distance allowed per query term, 0 to 2.
	Fuzziness int    `json:"fuzziness,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Explain   bool   `json:"explain,omitempty"`
	Script    Script `json:"script"`
}

// Validate checks the request and applies the limit defaults.
func (r *SearchRequest) Validate(defaultLimit, maxLimit int) error {
	if r.Script.Params == nil {
		return fmt.Errorf("script params are required")
	}
	if r.Fuzziness < 0 || r.Fuzziness > 2 {
		return fmt.Errorf("fuzziness must be between 0 and 2")
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if r.Limit == 0 {
		r.Limit = defaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return nil
}
