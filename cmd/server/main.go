package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arcee.dev/arcee/internal/api"
	"arcee.dev/arcee/internal/config"
	"arcee.dev/arcee/internal/core"
	"arcee.dev/arcee/internal/llm"
	"arcee.dev/arcee/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	geminiClient, err := llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	systemInstruction := core.LoadSystemInstruction(cfg.SystemInstructionPath)

	memoryService := core.NewMemoryService(dbStore, geminiClient, cfg.SummaryChunkSize, cfg.TopKSemantic, systemInstruction)
	profileExtractor := core.NewProfileExtractor(dbStore, geminiClient)
	chatService := core.NewChatService(dbStore, geminiClient, memoryService, profileExtractor,
		cfg.RecentTurns, cfg.MaxSummaries, systemInstruction)

	apiHandler := api.NewAPIHandler(chatService, cfg.JWTSecret)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
