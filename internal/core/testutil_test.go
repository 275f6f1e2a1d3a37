package core

import (
	"context"
	"path/filepath"
	"testing"

	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

// fakeLLM is a substitutable remote capability. The zero value answers
// every generation with "ok" and every embedding with a unit vector.
type fakeLLM struct {
	generateFn func(prompt, system string, budget int32) (string, error)
	embedFn    func(text string) ([]float32, error)

	generatePrompts []string
	embedTexts      []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt, system string, budget int32) (string, error) {
	f.generatePrompts = append(f.generatePrompts, prompt)
	if f.generateFn == nil {
		return "ok", nil
	}
	return f.generateFn(prompt, system, budget)
}

func (f *fakeLLM) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedTexts = append(f.embedTexts, text)
	if f.embedFn == nil {
		return []float32{1, 0, 0}, nil
	}
	return f.embedFn(text)
}

var _ llm.Client = (*fakeLLM)(nil)

type testEnv struct {
	store   *store.SQLiteStore
	llm     *fakeLLM
	memory  *MemoryService
	profile *ProfileExtractor
	chat    *ChatService
}

func newTestEnv(t *testing.T, fake *fakeLLM) *testEnv {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if fake == nil {
		fake = &fakeLLM{}
	}
	memory := NewMemoryService(s, fake, 20, 4, "instrução de teste")
	profile := NewProfileExtractor(s, fake)
	chat := NewChatService(s, fake, memory, profile, 5, 5, "instrução de teste")
	return &testEnv{store: s, llm: fake, memory: memory, profile: profile, chat: chat}
}
