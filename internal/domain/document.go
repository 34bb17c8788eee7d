package domain

// DocumentChunk is a piece of an ingested document stored in the vector index.
type DocumentChunk struct {
	ID     string
	Source string
	Text   string
	Index  int
}

// VectorStats summarizes vector index contents by source.
type VectorStats struct {
	TotalChunks int
	Sources     map[string]int
}

// EntityInput is the inbound payload for a knowledge graph entity.
type EntityInput struct {
	ID          string
	Label       string
	Type        string
	Description string
	Aliases     []string
	Attributes  map[string]any
}

// RelationshipInput is the inbound payload for a knowledge graph relationship.
type RelationshipInput struct {
	SourceID   string
	TargetID   string
	Relation   string
	Attributes map[string]any
}
