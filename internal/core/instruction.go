package core

import "os"

const defaultSystemInstruction = "Você é ARCEE, uma assistente de IA. Mantenha respostas claras, objetivas, sem se reapresentar em cada turno."

const instructionDirective = "\n\nDiretriz: Evite cumprimentos longos ou se reapresentar. Continue a conversa de forma natural."

// LoadSystemInstruction reads the system instruction from path,
// falling back to the built-in default when the file is missing.
func LoadSystemInstruction(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultSystemInstruction
	}
	return string(data) + instructionDirective
}
