package config

import "testing"

func TestLoadRequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected an error without GEMINI_API_KEY")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RecentTurns != DefaultRecentTurns {
		t.Errorf("expected default recent turns, got %d", cfg.RecentTurns)
	}
	if cfg.SummaryChunkSize != DefaultSummaryChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.SummaryChunkSize)
	}
	if cfg.MaxSummaries != DefaultMaxSummaries {
		t.Errorf("expected default max summaries, got %d", cfg.MaxSummaries)
	}
	if cfg.TopKSemantic != DefaultTopKSemantic {
		t.Errorf("expected default top_k, got %d", cfg.TopKSemantic)
	}
	if err := cfg.RequireJWTSecret(); err == nil {
		t.Error("expected RequireJWTSecret to fail without JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SUMMARY_CHUNK_SIZE", "10")
	t.Setenv("TOP_K_SEMANTIC", "2")
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SummaryChunkSize != 10 {
		t.Errorf("expected chunk size 10, got %d", cfg.SummaryChunkSize)
	}
	if cfg.TopKSemantic != 2 {
		t.Errorf("expected top_k 2, got %d", cfg.TopKSemantic)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		t.Errorf("unexpected RequireJWTSecret error: %v", err)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_COUNT", "not-a-number")
	if got := getEnvAsInt("SOME_COUNT", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
	t.Setenv("SOME_COUNT", "-3")
	if got := getEnvAsInt("SOME_COUNT", 7); got != 7 {
		t.Errorf("expected fallback for non-positive value, got %d", got)
	}
}
