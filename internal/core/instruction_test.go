package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSystemInstructionMissingFile(t *testing.T) {
	got := LoadSystemInstruction(filepath.Join(t.TempDir(), "nope.txt"))
	if got != defaultSystemInstruction {
		t.Errorf("expected built-in default, got %q", got)
	}
}

func TestLoadSystemInstructionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_instruction.txt")
	if err := os.WriteFile(path, []byte("Você é ARCEE."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := LoadSystemInstruction(path)
	if !strings.HasPrefix(got, "Você é ARCEE.") {
		t.Errorf("expected file contents first, got %q", got)
	}
	if !strings.Contains(got, "Diretriz:") {
		t.Error("expected the appended directive")
	}
}
