package search

import (
	"github.com/hyperjump/fastcos/internal/config"
	"github.com/hyperjump/fastcos/internal/models"
)

// ProcessQuery validates and applies defaults to the search request.
func ProcessQuery(req *models.SearchRequest, cfg *config.SearchConfig) error {
	return req.Validate(cfg.DefaultLimit, cfg.MaxLimit)
}
