package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

// BuildPrompt composes the bounded prompt for one turn from the
// current store state: profile snippet, recent incremental summaries,
// semantic clues for the input, the raw recent turns, and finally the
// new input itself. Sections are included only when non-empty, always
// in that order, separated by blank lines.
//
// The result is recomputed from scratch every turn; the recency
// windows and retrieval results shift with every new message, so there
// is nothing worth caching. Bounding comes purely from the window
// counts — individual messages and summaries are never clipped.
func (s *ChatService) BuildPrompt(ctx context.Context, userID, userInput string) (string, error) {
	user, err := s.dbStore.GetOrCreateUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user profile: %w", err)
	}

	summaries, err := s.dbStore.RecentSummaries(ctx, userID, s.maxSummaries)
	if err != nil {
		return "", fmt.Errorf("failed to load summaries: %w", err)
	}

	clues, err := s.memory.SemanticSearch(ctx, userID, userInput)
	if err != nil {
		if !errors.Is(err, llm.ErrEmbeddingUnavailable) {
			return "", err
		}
		// No semantic clues this turn; the reply still goes out.
		log.Printf("(Aviso) semantic retrieval unavailable for user %s: %v", userID, err)
		clues = nil
	}

	recent, err := s.dbStore.RecentMessages(ctx, userID, s.recentTurns)
	if err != nil {
		return "", fmt.Errorf("failed to load recent messages: %w", err)
	}

	var parts []string
	if profile := buildProfileSnippet(user); profile != "" {
		parts = append(parts, "Perfil do usuário:\n"+profile)
	}
	if len(summaries) > 0 {
		parts = append(parts, "Memória incremental recente:\n- "+strings.Join(summaries, "\n- "))
	}
	if len(clues) > 0 {
		parts = append(parts, "Memórias relevantes encontradas:\n- "+strings.Join(clues, "\n- "))
	}
	if len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for _, msg := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Content))
		}
		parts = append(parts, "Últimos turnos:\n"+strings.Join(lines, "\n"))
	}
	parts = append(parts, "Você: "+userInput)

	return strings.Join(parts, "\n\n"), nil
}

// buildProfileSnippet renders the profile section: name when set, then
// the preference and personal-fact maps as compact JSON.
func buildProfileSnippet(user *store.User) string {
	var parts []string
	if user.Name != "" {
		parts = append(parts, "Nome do usuário: "+user.Name)
	}
	if len(user.Preferences) > 0 {
		if encoded, err := json.Marshal(user.Preferences); err == nil {
			parts = append(parts, "Preferências: "+string(encoded))
		}
	}
	if len(user.PersonalFacts) > 0 {
		if encoded, err := json.Marshal(user.PersonalFacts); err == nil {
			parts = append(parts, "Dados pessoais relevantes: "+string(encoded))
		}
	}
	return strings.Join(parts, "\n")
}
