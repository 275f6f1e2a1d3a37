package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"arcee.dev/arcee/internal/config"
	"arcee.dev/arcee/internal/core"
	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

func main() {
	userFlag := flag.String("user", "default", "user identity for this session")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	ctx := context.Background()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	systemInstruction := core.LoadSystemInstruction(cfg.SystemInstructionPath)

	memoryService := core.NewMemoryService(dbStore, geminiClient, cfg.SummaryChunkSize, cfg.TopKSemantic, systemInstruction)
	profileExtractor := core.NewProfileExtractor(dbStore, geminiClient)
	chatService := core.NewChatService(dbStore, geminiClient, memoryService, profileExtractor,
		cfg.RecentTurns, cfg.MaxSummaries, systemInstruction)

	if _, err := chatService.Profile(ctx, *userFlag); err != nil {
		log.Fatalf("Failed to initialize user %s: %v", *userFlag, err)
	}

	fmt.Println("🤖 Arcee iniciada! (digite 'sair' para encerrar)")
	fmt.Println("💡 Dica: use '/pensar ' no início para raciocínio profundo. Use '/perfil {json}' para ajustar preferências.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Você: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Println("Arcee: Até mais!")
			return
		}

		// Explicit preference update: /perfil {"tom":"casual"}
		if strings.HasPrefix(input, "/perfil") {
			payload := strings.TrimSpace(strings.TrimPrefix(input, "/perfil"))
			var prefs map[string]any
			if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
				fmt.Printf("Arcee: Não consegui atualizar o perfil. Envie um JSON válido. Erro: %v\n", err)
				continue
			}
			if err := chatService.UpdateProfile(ctx, *userFlag, "", prefs, nil); err != nil {
				log.Fatalf("Failed to update preferences: %v", err)
			}
			fmt.Println("Arcee: Preferências atualizadas.")
			continue
		}

		var thinkingBudget int32
		if strings.HasPrefix(input, "/pensar") {
			thinkingBudget = core.DeepThinkingBudget
			input = strings.TrimSpace(strings.TrimPrefix(input, "/pensar"))
			if input == "" {
				continue
			}
		}

		answer, err := chatService.ProcessTurn(ctx, *userFlag, input, thinkingBudget)
		if err != nil {
			// Only store failures reach here; nothing useful survives them.
			log.Fatalf("Turn failed: %v", err)
		}
		fmt.Printf("\nArcee: %s\n\n", answer)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("Input error: %v", err)
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "sair", "exit", "quit":
		return true
	}
	return false
}
