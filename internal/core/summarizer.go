package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"arcee.dev/arcee/internal/store"
)

const summarizePromptHeader = "Resuma em 2-3 frases o histórico abaixo, preservando decisões, preferências e fatos importantes.\n\n"

// MaybeSummarize checks whether the user has accumulated a full chunk
// of unsummarized messages and, if so, compresses exactly one chunk
// into a new summary record. Called once per turn; a backlog larger
// than one chunk drains one block per turn.
//
// Partial chunks are never summarized, so up to chunkSize-1 trailing
// messages always stay pending and are covered by the raw recent-turns
// window instead. Returns whether a summary was created. A failed or
// empty remote call creates no record; the block stays pending and is
// retried in full on a later turn.
func (m *MemoryService) MaybeSummarize(ctx context.Context, userID string) (bool, error) {
	lastEnd, err := m.dbStore.LastSummarizedID(ctx, userID)
	if err != nil {
		return false, err
	}
	pending, err := m.dbStore.MessagesAfter(ctx, userID, lastEnd)
	if err != nil {
		return false, err
	}
	if len(pending) < m.chunkSize {
		return false, nil
	}

	block := pending[:m.chunkSize]
	summary, err := m.summarizeBlock(ctx, block)
	if err != nil {
		log.Printf("Failed to summarize block for user %s, will retry next turn: %v", userID, err)
		return false, nil
	}
	if summary == "" {
		log.Printf("Summarization returned empty text for user %s, will retry next turn.", userID)
		return false, nil
	}

	startID, endID := block[0].ID, block[len(block)-1].ID
	if err := m.dbStore.AddSummary(ctx, userID, summary, startID, endID); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryService) summarizeBlock(ctx context.Context, block []store.Message) (string, error) {
	if len(block) == 0 {
		return "", fmt.Errorf("cannot summarize an empty block")
	}
	lines := make([]string, 0, len(block))
	for _, msg := range block {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Content))
	}
	prompt := summarizePromptHeader + strings.Join(lines, "\n")

	summary, err := m.llm.Generate(ctx, prompt, m.systemInstruction, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// roleLabel renders the speaker labels used throughout prompts.
func roleLabel(role string) string {
	if role == "user" {
		return "Você"
	}
	return "Arcee"
}
