package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"arcee.dev/arcee/internal/core"
	"arcee.dev/arcee/internal/store"
)

type stubLLM struct{}

func (stubLLM) Generate(_ context.Context, prompt, system string, budget int32) (string, error) {
	if strings.HasPrefix(prompt, "Extraia informações") {
		return "{}", nil
	}
	return "Olá! Como posso ajudar?", nil
}

func (stubLLM) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	client := stubLLM{}
	memory := core.NewMemoryService(s, client, 20, 4, "teste")
	profile := core.NewProfileExtractor(s, client)
	chat := core.NewChatService(s, client, memory, profile, 5, 5, "teste")
	return NewRouter(NewAPIHandler(chat, "test-secret"))
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestChatRequiresAuth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/chat", "", map[string]string{"content": "oi"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignupLoginChatFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{
		"user_id": "maria", "password": "segredo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	// Duplicate signup is rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{
		"user_id": "maria", "password": "outro",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"user_id": "maria", "password": "segredo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var loginResp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	token := loginResp["token"]
	if token == "" {
		t.Fatal("expected a token")
	}

	rec = doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]any{"content": "oi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var chatResp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &chatResp); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chatResp.Answer != "Olá! Como posso ajudar?" {
		t.Errorf("unexpected answer: %q", chatResp.Answer)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/history?limit=10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var history []store.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 messages in history, got %d", len(history))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{
		"user_id": "maria", "password": "segredo",
	})
	rec := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"user_id": "maria", "password": "errado",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignupMintsIdentity(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{"password": "segredo"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var user store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID == "" {
		t.Error("expected a generated user id")
	}
}

func TestUpdateProfile(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{
		"user_id": "maria", "password": "segredo",
	})
	rec := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"user_id": "maria", "password": "segredo",
	})
	var loginResp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &loginResp)
	token := loginResp["token"]

	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]any{
		"nome":         "Maria",
		"preferencias": map[string]any{"tom": "casual"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var user store.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Name != "Maria" {
		t.Errorf("expected name Maria, got %q", user.Name)
	}
	if fmt.Sprint(user.Preferences["tom"]) != "casual" {
		t.Errorf("expected tom=casual, got %v", user.Preferences)
	}
}
