package config

import "time"

// TraitsConfig configures the trait-scoring LLM client and its fallback chain.
type TraitsConfig struct {
	PrimaryBaseURL   string
	SecondaryBaseURL string
	SecondaryAPIKey  string
	Model            string
	AttemptTimeout   time.Duration
}

func loadTraitsConfig() TraitsConfig {
	return TraitsConfig{
		PrimaryBaseURL:   getEnv("TRAIT_LLM_BASE_URL", "http://localhost:11434"),
		SecondaryBaseURL: getEnv("TRAIT_LLM_SECONDARY_BASE_URL", "http://localhost:8080/v1"),
		SecondaryAPIKey:  getEnv("TRAIT_LLM_SECONDARY_API_KEY", "local"),
		Model:            getEnv("TRAIT_LLM_MODEL", "qwen2.5:7b-instruct-q4_K_M"),
		AttemptTimeout:   getEnvDuration("TRAIT_LLM_ATTEMPT_TIMEOUT", 10*time.Minute),
	}
}

// EmbedConfig configures the embeddings worker.
type EmbedConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	ChunkSize int
}

func loadEmbedConfig() EmbedConfig {
	return EmbedConfig{
		BaseURL:   getEnv("EMBEDDINGS_BASE_URL", "http://localhost:8080/v1"),
		APIKey:    getEnv("EMBEDDINGS_API_KEY", "local"),
		Model:     getEnv("EMBEDDINGS_MODEL", "BAAI/bge-large-en-v1.5"),
		ChunkSize: getEnvInt("EMBEDDINGS_CHUNK_SIZE", 32),
	}
}
