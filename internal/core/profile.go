package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

const extractionPrompt = "Extraia informações de perfil do usuário do texto a seguir e retorne apenas um objeto JSON estrito, " +
	"com sub-objetos opcionais \"preferencias\" e \"dados_pessoais\". " +
	"Inclua preferências, interesses, hábitos e características pessoais. " +
	"Não invente informações que não estejam no texto. Se não houver nada, retorne um objeto vazio.\n\n" +
	"Texto do usuário: %s"

// ProfileExtractor infers preference and personal-fact updates from a
// single user utterance and merges them into the stored profile.
type ProfileExtractor struct {
	dbStore *store.SQLiteStore
	llm     llm.Client
}

func NewProfileExtractor(db *store.SQLiteStore, client llm.Client) *ProfileExtractor {
	return &ProfileExtractor{dbStore: db, llm: client}
}

type profileUpdate struct {
	Preferences   map[string]any `json:"preferencias"`
	PersonalFacts map[string]any `json:"dados_pessoais"`
}

// ExtractAndMerge asks the model for profile updates implied by text
// and applies them with a shallow key-wise merge. Remote failures and
// malformed output are logged and treated as "no update"; only store
// failures are returned.
func (p *ProfileExtractor) ExtractAndMerge(ctx context.Context, userID, text string) error {
	out, err := p.llm.Generate(ctx, fmt.Sprintf(extractionPrompt, text), "", 0)
	if err != nil {
		log.Printf("(Aviso) profile extraction failed for user %s: %v", userID, err)
		return nil
	}

	var update profileUpdate
	if err := json.Unmarshal([]byte(stripJSONFences(out)), &update); err != nil {
		log.Printf("(Aviso) profile extraction returned invalid JSON for user %s: %v", userID, err)
		return nil
	}
	if len(update.Preferences) == 0 && len(update.PersonalFacts) == 0 {
		return nil
	}

	return p.dbStore.MergeUserProfile(ctx, userID, update.Preferences, update.PersonalFacts)
}

// stripJSONFences removes a surrounding markdown code fence, which
// Gemini often wraps JSON output in.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
