package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edustack/coursequiz/internal/api"
	"github.com/edustack/coursequiz/internal/config"
	"github.com/edustack/coursequiz/internal/core"
	"github.com/edustack/coursequiz/internal/llm"
	"github.com/edustack/coursequiz/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flags for offline indexing
	indexFile := flag.String("index", "", "Index the given text file and exit (requires -doc)")
	indexDocID := flag.String("doc", "", "Document ID to index the -index file under")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize the generation/embedding backends. Without an API key the
	// service still runs: generation uses the deterministic mock and
	// retrieval stays lexical.
	var liveGenerator llm.Generator
	var embedder llm.Embedder
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(context.Background(),
			config.AppConfig.GeminiAPIKey,
			config.AppConfig.GenerationModel,
			config.AppConfig.EmbeddingModel,
			config.AppConfig.EmbeddingDim)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		defer gemini.Close()
		liveGenerator = gemini
		embedder = gemini
	}
	mockGenerator := llm.NewMockGenerator()

	// Stop words: built-in English list unless a deployment overrides it.
	stopwords, err := config.LoadStopwords(config.AppConfig.StopwordsFile)
	if err != nil {
		log.Fatalf("Failed to load stopwords: %v", err)
	}
	if stopwords == nil {
		stopwords = core.DefaultStopwords()
	}

	// Initialize core services
	indexer := core.NewIndexer(dbStore, embedder, stopwords, config.AppConfig.MaxChunkChars)
	retriever := core.NewRetriever(dbStore, embedder, stopwords)
	quizService := core.NewQuizService(retriever, liveGenerator, mockGenerator, config.AppConfig.RetrievalTopK)
	grader := core.NewGrader(liveGenerator, mockGenerator)

	// Handle offline indexing if requested
	if *indexFile != "" {
		if *indexDocID == "" {
			log.Fatal("-index requires -doc <documentID>")
		}
		content, err := os.ReadFile(*indexFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *indexFile, err)
		}
		count, err := indexer.IndexDocument(context.Background(), *indexDocID, string(content))
		if err != nil {
			log.Fatalf("Indexing failed: %v", err)
		}
		log.Printf("Indexing complete: %d chunks for document %s. Exiting.", count, *indexDocID)
		os.Exit(0)
	}

	// Initialize API handler and router
	apiHandler := api.NewAPIHandler(indexer, retriever, quizService, grader, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
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
