// Package models defines core data structures for course materials and
// query expansion results.
package models

import "time"

// Material represents a stored course material with metadata. Materials are
// the corpus documents that expansion statistics are computed over.
type Material struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// MaterialInput is the input for creating or updating a material.
type MaterialInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RankedMaterial pairs a material with its retrieval score. The upstream
// retriever produces these already ranked; the expansion engine trusts the
// ordering and, when Score is set, the score itself.
type RankedMaterial struct {
	Material *Material `json:"material"`
	Score    float64   `json:"score"`
	Rank     int       `json:"rank"`
}
