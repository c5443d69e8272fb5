// Package collectible implements the identify → valuate → describe
// pipeline for collectible photos.
package collectible

import (
	"github.com/snapatlas/enrich/pkg/claude"
	"github.com/snapatlas/enrich/pkg/jina"
)

// Config holds collectible pipeline limits.
type Config struct {
	MaxSearchResults int
	MaxVenueLength   int
	MaxURLLength     int
	MaxTokens        int64
}

// Pipeline runs the three collectible stages. Each stage is independently
// callable so they can be tested and re-run in isolation.
type Pipeline struct {
	cfg    Config
	ai     claude.Client
	search jina.Client
}

// NewPipeline creates a collectible pipeline.
func NewPipeline(cfg Config, ai claude.Client, search jina.Client) *Pipeline {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 5
	}
	if cfg.MaxVenueLength <= 0 {
		cfg.MaxVenueLength = 128
	}
	if cfg.MaxURLLength <= 0 {
		cfg.MaxURLLength = 512
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Pipeline{cfg: cfg, ai: ai, search: search}
}
