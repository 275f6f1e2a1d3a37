package core

import (
	"arcee.dev/arcee/internal/config"
	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

// MemoryService owns the two long-term memory mechanisms: brute-force
// semantic retrieval over stored embeddings and incremental
// summarization of old message blocks.
type MemoryService struct {
	dbStore           *store.SQLiteStore
	llm               llm.Client
	chunkSize         int
	topK              int
	systemInstruction string
}

func NewMemoryService(db *store.SQLiteStore, client llm.Client, chunkSize, topK int, systemInstruction string) *MemoryService {
	if chunkSize <= 0 {
		chunkSize = config.DefaultSummaryChunkSize
	}
	if topK <= 0 {
		topK = config.DefaultTopKSemantic
	}
	return &MemoryService{
		dbStore:           db,
		llm:               client,
		chunkSize:         chunkSize,
		topK:              topK,
		systemInstruction: systemInstruction,
	}
}
