package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GeminiAPIKey    string
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	GenerationModel string
	EmbeddingModel  string
	EmbeddingDim    int
	MaxChunkChars   int
	RetrievalTopK   int
	QuizMinCount    int
	QuizMaxCount    int
	StopwordsFile   string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", "coursequiz.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		GenerationModel: getEnv("GENERATION_MODEL", "gemini-1.5-flash-latest"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:    getEnvAsInt("EMBEDDING_DIM", 768),
		MaxChunkChars:   getEnvAsInt("MAX_CHUNK_CHARS", 1000),
		RetrievalTopK:   getEnvAsInt("RETRIEVAL_TOP_K", 5),
		QuizMinCount:    getEnvAsInt("QUIZ_MIN_COUNT", 5),
		QuizMaxCount:    getEnvAsInt("QUIZ_MAX_COUNT", 15),
		StopwordsFile:   getEnv("STOPWORDS_FILE", ""),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set: running with the deterministic mock generator and lexical-only retrieval")
	}
}

// LoadStopwords reads a YAML list of stop words. An empty path means the
// caller should fall back to the built-in list.
func LoadStopwords(path string) (map[string]struct{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stopwords file %s: %w", path, err)
	}
	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("failed to parse stopwords file %s: %w", path, err)
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
