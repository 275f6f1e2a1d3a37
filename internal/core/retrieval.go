package core

import (
	"context"
	"fmt"
	"log"
	"sort"

	"arcee.dev/arcee/internal/store"
	"arcee.dev/arcee/internal/utils"
)

type scoredMessage struct {
	entry      store.MessageEmbedding
	similarity float32
}

// SemanticSearch returns the contents of the user's stored messages
// most similar to the query, best match first. A linear scan over the
// whole per-user corpus: O(n·d) per query, fine at the scale of one
// person's chat history.
//
// An empty corpus returns an empty result without touching the remote
// embedder. Embedding failures surface as errors wrapping
// llm.ErrEmbeddingUnavailable so the assembler can degrade to "no
// semantic clues" instead of failing the turn.
func (m *MemoryService) SemanticSearch(ctx context.Context, userID, query string) ([]string, error) {
	corpus, err := m.dbStore.EmbeddingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding corpus: %w", err)
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	queryVec, err := m.llm.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]scoredMessage, 0, len(corpus))
	for _, entry := range corpus {
		if len(entry.Vector) == 0 {
			log.Printf("Skipping message %d in retrieval due to missing embedding.", entry.MessageID)
			continue
		}
		similarity, err := utils.CosineSimilarity(queryVec, entry.Vector)
		if err != nil {
			log.Printf("Error calculating similarity for message %d: %v. Skipping.", entry.MessageID, err)
			continue
		}
		scored = append(scored, scoredMessage{entry: entry, similarity: similarity})
	}

	// Stable sort keeps ties in message-id order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})

	n := m.topK
	if n > len(scored) {
		n = len(scored)
	}
	results := make([]string, 0, n)
	for _, sm := range scored[:n] {
		results = append(results, sm.entry.Content)
	}
	return results, nil
}
