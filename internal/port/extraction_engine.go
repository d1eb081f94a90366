package port

import "context"

// Chunk is one unit of document content submitted to the extraction engine
// independently. Page bounds are 1-based and inclusive.
type Chunk struct {
	Index     int
	StartPage int
	EndPage   int
}

// ChunkLineItem is one proposed row from a chunk result.
type ChunkLineItem struct {
	Category    string   `json:"category"`
	Label       string   `json:"label"`
	Value       *float64 `json:"value"`
	IsTotal     bool     `json:"is_total"`
	IndentLevel int      `json:"indent_level"`
}

// ChunkStatement is one (statement_type, period) group proposed by a chunk.
type ChunkStatement struct {
	StatementType string          `json:"statement_type"`
	Period        string          `json:"period"`
	PeriodEndDate *string         `json:"period_end_date"`
	Currency      string          `json:"currency"`
	Unit          string          `json:"unit"`
	SourcePages   string          `json:"source_pages"`
	LineItems     []ChunkLineItem `json:"line_items"`
}

// ExtractionEngine abstracts the external engine that reads raw document
// bytes and proposes labeled values per chunk. The job manager only tracks
// chunk counts and folds results; chunking strategy belongs to the engine.
type ExtractionEngine interface {
	// PlanChunks splits a document into a bounded chunk sequence.
	PlanChunks(ctx context.Context, fileBytes []byte, contentType string) ([]Chunk, error)
	// ExtractChunk runs extraction over one chunk and returns zero or more
	// statement groups.
	ExtractChunk(ctx context.Context, fileBytes []byte, contentType string, chunk Chunk) ([]ChunkStatement, error)
}
