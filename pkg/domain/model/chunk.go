package model

import (
	"time"

	"github.com/google/uuid"
)

// ChunkID is a UUID-based identifier for an indexed chunk
type ChunkID string

// NewChunkID generates a new ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// Chunk is one indexed fragment of a source document
type Chunk struct {
	ID        ChunkID   `json:"id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// IndexStats describes a loaded document index
type IndexStats struct {
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Documents  int       `json:"document_count"`
	TopK       int       `json:"top_k"`
	ChunkSize  int       `json:"chunk_size"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
}

// MemoryStats describes the conversation memory store
type MemoryStats struct {
	ActiveConversations int  `json:"active_conversations"`
	Enabled             bool `json:"enabled"`
	MaxTurns            int  `json:"max_turns"`
}
