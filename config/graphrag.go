package config

import "time"

// TriplestoreConfig holds connection and concurrency settings for the RDF
// triplestore adapter (SPARQL endpoint).
type TriplestoreConfig struct {
	BaseURL     string
	Repository  string
	Username    string
	Password    string
	Concurrency int
	Timeout     time.Duration
}

// LoadTriplestoreConfig loads triplestore configuration from environment.
func LoadTriplestoreConfig(prefix string) TriplestoreConfig {
	env := NewEnvConfig(prefix)
	return TriplestoreConfig{
		BaseURL:     env.GetString("BASE_URL", ""),
		Repository:  env.GetString("REPOSITORY", ""),
		Username:    env.GetString("USERNAME", ""),
		Password:    env.GetString("PASSWORD", ""),
		Concurrency: env.GetInt("CONCURRENCY", 10),
		Timeout:     env.GetDuration("TIMEOUT", 120*time.Second),
	}
}

// VectorConfig holds settings for the vector store adapter backed by Redis.
type VectorConfig struct {
	EmbeddingDim int
	RedisURL     string
}

// LoadVectorConfig loads vector store configuration from environment.
func LoadVectorConfig(prefix string) VectorConfig {
	env := NewEnvConfig(prefix)
	return VectorConfig{
		EmbeddingDim: env.GetInt("EMBEDDING_DIM", 1536),
		RedisURL:     env.GetString("REDIS_URL", "redis://localhost:6379/0"),
	}
}

// LPGConfig holds connection settings for the labeled-property-graph adapter
// (Neo4j over Bolt).
type LPGConfig struct {
	URI      string
	Username string
	Password string
}

// LoadLPGConfig loads LPG configuration from environment.
func LoadLPGConfig(prefix string) LPGConfig {
	env := NewEnvConfig(prefix)
	return LPGConfig{
		URI:      env.GetString("URI", "neo4j://localhost:7687"),
		Username: env.GetString("USERNAME", ""),
		Password: env.GetString("PASSWORD", ""),
	}
}

// SQLConfig holds the DSN for the relational federator adapter.
type SQLConfig struct {
	DSN string
}

// LoadSQLConfig loads SQL federator configuration from environment.
func LoadSQLConfig(prefix string) SQLConfig {
	env := NewEnvConfig(prefix)
	return SQLConfig{
		DSN: env.GetString("DSN", ""),
	}
}

// KVConfig holds connection settings for the Redis-backed key-value adapter
// used by the memory store and session state.
type KVConfig struct {
	RedisURL string
}

// LoadKVConfig loads KV adapter configuration from environment.
func LoadKVConfig(prefix string) KVConfig {
	env := NewEnvConfig(prefix)
	return KVConfig{
		RedisURL: env.GetString("REDIS_URL", "redis://localhost:6379/1"),
	}
}

// LLMConfig holds timeout settings for the chat/embedding collaborators.
type LLMConfig struct {
	Timeout time.Duration
}

// LoadLLMConfig loads LLM collaborator configuration from environment.
func LoadLLMConfig(prefix string) LLMConfig {
	env := NewEnvConfig(prefix)
	return LLMConfig{
		Timeout: env.GetDuration("TIMEOUT", 30*time.Second),
	}
}

// GraphRAGConfig aggregates every domain-specific section under the
// GRAPHRAG_ prefix: the five store adapters plus the LLM collaborator
// timeout. Concurrency lives on TriplestoreConfig since the triplestore is
// the only adapter capped by default; it is also the only adapter that
// retries (with concurrency.DefaultRetryPolicy). sqlfed and lpg do not retry.
type GraphRAGConfig struct {
	Triplestore TriplestoreConfig
	Vector      VectorConfig
	LPG         LPGConfig
	SQL         SQLConfig
	KV          KVConfig
	LLM         LLMConfig
}

// LoadGraphRAGConfig loads every GRAPHRAG_* section and validates the fields
// that have no safe default (the endpoints the adapters dial out to).
func LoadGraphRAGConfig(prefix string) (GraphRAGConfig, error) {
	cfg := GraphRAGConfig{
		Triplestore: LoadTriplestoreConfig(prefix + "_TRIPLESTORE"),
		Vector:      LoadVectorConfig(prefix + "_VECTOR"),
		LPG:         LoadLPGConfig(prefix + "_LPG"),
		SQL:         LoadSQLConfig(prefix + "_SQL"),
		KV:          LoadKVConfig(prefix + "_KV"),
		LLM:         LoadLLMConfig(prefix + "_LLM"),
	}

	validator := NewValidator()
	validator.RequireURL("Triplestore.BaseURL", cfg.Triplestore.BaseURL)
	validator.RequireString("Triplestore.Repository", cfg.Triplestore.Repository)
	validator.RequirePositiveInt("Triplestore.Concurrency", cfg.Triplestore.Concurrency)
	validator.RequireString("LPG.URI", cfg.LPG.URI)
	validator.RequireString("SQL.DSN", cfg.SQL.DSN)

	if err := validator.Validate(); err != nil {
		return GraphRAGConfig{}, err
	}

	return cfg, nil
}
