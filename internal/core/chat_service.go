package core

import (
	"context"
	"fmt"
	"log"

	"arcee.dev/arcee/internal/config"
	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

// NoResponseText is the fallback answer when generation fails; the
// turn is still persisted so the conversation can continue.
const NoResponseText = "(sem resposta)"

// DeepThinkingBudget is the reasoning budget requested when the caller
// asks for deep thinking (/pensar, the API "think" flag).
const DeepThinkingBudget int32 = 120

// ChatService drives one full turn: persist the input, run profile
// extraction, embed, maybe summarize, assemble the prompt, generate,
// and persist the answer. Remote-capability failures degrade the
// individual feature; only store failures propagate.
type ChatService struct {
	dbStore           *store.SQLiteStore
	llm               llm.Client
	memory            *MemoryService
	profile           *ProfileExtractor
	recentTurns       int
	maxSummaries      int
	systemInstruction string
}

func NewChatService(db *store.SQLiteStore, client llm.Client, memory *MemoryService, profile *ProfileExtractor, recentTurns, maxSummaries int, systemInstruction string) *ChatService {
	if recentTurns <= 0 {
		recentTurns = config.DefaultRecentTurns
	}
	if maxSummaries <= 0 {
		maxSummaries = config.DefaultMaxSummaries
	}
	return &ChatService{
		dbStore:           db,
		llm:               client,
		memory:            memory,
		profile:           profile,
		recentTurns:       recentTurns,
		maxSummaries:      maxSummaries,
		systemInstruction: systemInstruction,
	}
}

// ProcessTurn handles one user input and returns the assistant's
// answer. thinkingBudget > 0 requests deeper reasoning.
func (s *ChatService) ProcessTurn(ctx context.Context, userID, input string, thinkingBudget int32) (string, error) {
	if _, err := s.dbStore.GetOrCreateUser(ctx, userID); err != nil {
		return "", err
	}

	msgID, err := s.dbStore.SaveMessage(ctx, userID, "user", input)
	if err != nil {
		return "", err
	}

	if err := s.profile.ExtractAndMerge(ctx, userID, input); err != nil {
		return "", fmt.Errorf("failed to merge profile update: %w", err)
	}

	s.embedMessage(ctx, msgID, input)

	if _, err := s.memory.MaybeSummarize(ctx, userID); err != nil {
		return "", fmt.Errorf("failed to store summary: %w", err)
	}

	prompt, err := s.BuildPrompt(ctx, userID, input)
	if err != nil {
		return "", err
	}

	answer, err := s.llm.Generate(ctx, prompt, s.systemInstruction, thinkingBudget)
	if err != nil {
		log.Printf("Generation failed for user %s: %v", userID, err)
		answer = NoResponseText
	}

	modelMsgID, err := s.dbStore.SaveMessage(ctx, userID, "model", answer)
	if err != nil {
		return "", err
	}
	// Embedding model answers too improves future semantic recall.
	s.embedMessage(ctx, modelMsgID, answer)

	return answer, nil
}

// embedMessage stores an embedding for a saved message. Embeddings are
// opportunistic: a failure leaves the message out of the retrieval
// corpus and never blocks the turn.
func (s *ChatService) embedMessage(ctx context.Context, messageID int64, content string) {
	vec, err := s.llm.Embed(ctx, content)
	if err != nil {
		log.Printf("(Aviso) Falha ao gerar embedding para mensagem %d: %v", messageID, err)
		return
	}
	if err := s.dbStore.SaveEmbedding(ctx, messageID, vec); err != nil {
		log.Printf("Failed to store embedding for message %d: %v", messageID, err)
	}
}

// Profile returns the user's stored profile, creating the user with
// default preferences on first reference.
func (s *ChatService) Profile(ctx context.Context, userID string) (*store.User, error) {
	return s.dbStore.GetOrCreateUser(ctx, userID)
}

// User returns nil without error when the user does not exist.
func (s *ChatService) User(ctx context.Context, userID string) (*store.User, error) {
	return s.dbStore.GetUser(ctx, userID)
}

// CreateUser registers a user with a password hash (HTTP signup).
func (s *ChatService) CreateUser(ctx context.Context, userID, passwordHash string) (*store.User, error) {
	return s.dbStore.CreateUser(ctx, userID, passwordHash)
}

// UpdateProfile applies an explicit profile change (the /perfil
// command and the HTTP profile endpoint): optional display name plus
// shallow merges into the two profile maps.
func (s *ChatService) UpdateProfile(ctx context.Context, userID, name string, prefs, facts map[string]any) error {
	if _, err := s.dbStore.GetOrCreateUser(ctx, userID); err != nil {
		return err
	}
	if name != "" {
		if err := s.dbStore.SetUserName(ctx, userID, name); err != nil {
			return err
		}
	}
	return s.dbStore.MergeUserProfile(ctx, userID, prefs, facts)
}

// History returns the last n messages in chronological order.
func (s *ChatService) History(ctx context.Context, userID string, n int) ([]store.Message, error) {
	if n <= 0 {
		n = 50
	}
	return s.dbStore.RecentMessages(ctx, userID, n)
}
