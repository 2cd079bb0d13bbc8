package model

import (
	"time"

	"github.com/secmon-lab/pythia/pkg/domain/types"
)

// Message is a single conversation message owned by the memory store.
// Immutable once created.
type Message struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// HistoryEntry is a message stripped to what generation backends consume
type HistoryEntry struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// Formatted strips the timestamp for LLM consumption
func (m Message) Formatted() HistoryEntry {
	return HistoryEntry{
		Role:    m.Role,
		Content: m.Content,
	}
}
