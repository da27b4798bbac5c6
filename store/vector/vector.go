// Package vector implements the vector store adapter: semantic search over
// document chunk embeddings held in a Redis/RediSearch-compatible index.
// The client construction and connectivity check follow the teacher's
// NewRedisRepository idiom (db/repository/redis.go); since go-redis has no
// native RediSearch DSL, index administration and KNN search are issued
// through the generic Do command path, the same escape hatch the teacher
// reaches for whenever a command has no typed method (db/dragonflydb.go).
package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Chunk is one ranked result from SemanticSearch.
type Chunk struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	Text         string
	ChunkIndex   int
	PageStart    int
	PageEnd      int
	Similarity   float64
}

// Filters narrows SemanticSearch to a tenant/workspace scope and optional
// document metadata.
type Filters struct {
	TenantID    string
	WorkspaceID string
	DocType     string
	ContextType string
	DateFrom    *time.Time
	DateTo      *time.Time
	DocumentIDs []string
}

// Adapter is the vector store adapter.
type Adapter struct {
	client       *redis.Client
	embeddingDim int
}

// New creates a vector adapter, verifying connectivity the same way
// NewRedisRepository does (ParseURL, construct client, Ping with a bounded
// timeout).
func New(redisURL string, embeddingDim int) (*Adapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("vector: failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("vector: failed to connect to Redis: %w", err)
	}

	return &Adapter{client: client, embeddingDim: embeddingDim}, nil
}

// Close releases the underlying Redis connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

const indexName = "idx:doc_chunks"

// EnsureIndex creates idx:doc_chunks via FT.CREATE if it does not already
// exist. FT.CREATE has no typed method on go-redis's client, so it is
// issued through the generic Do command the same way the teacher falls
// back to raw commands in db/dragonflydb.go.
func (a *Adapter) EnsureIndex(ctx context.Context) error {
	args := []interface{}{
		"FT.CREATE", indexName, "ON", "JSON", "PREFIX", "1", "chunk:",
		"SCHEMA",
		"$.tenant_id", "AS", "tenant_id", "TAG",
		"$.workspace_id", "AS", "workspace_id", "TAG",
		"$.doc_type", "AS", "doc_type", "TAG",
		"$.context_type", "AS", "context_type", "TAG",
		"$.document_id", "AS", "document_id", "TAG",
		"$.created_at", "AS", "created_at", "NUMERIC",
		"$.embedding", "AS", "embedding", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32", "DIM", strconv.Itoa(a.embeddingDim), "DISTANCE_METRIC", "COSINE",
	}

	if err := a.client.Do(ctx, args...).Err(); err != nil {
		if isIndexExistsErr(err) {
			return nil
		}
		return fmt.Errorf("vector: FT.CREATE %s: %w", indexName, err)
	}
	return nil
}

func isIndexExistsErr(err error) bool {
	return err != nil && (err.Error() == "Index already exists" || err.Error() == "index already exists")
}

// SemanticSearch returns the topK chunks most similar to queryEmbedding,
// filtered by tenant, workspace, DocType, ContextType and DocumentIDs, and
// ranked by cosine similarity descending. DateFrom and DateTo are not
// applied.
func (a *Adapter) SemanticSearch(ctx context.Context, queryEmbedding []float32, topK int, filters Filters) ([]Chunk, error) {
	blob := encodeVector(queryEmbedding)

	query := buildFilterQuery(filters)
	args := []interface{}{
		"FT.SEARCH", indexName, query,
		"PARAMS", "2", "vec", string(blob),
		"SORTBY", "__embedding_score",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}

	res, err := a.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("vector: FT.SEARCH: %w", err)
	}

	return parseSearchResult(res)
}

func buildFilterQuery(f Filters) string {
	query := fmt.Sprintf("(@tenant_id:{%s} @workspace_id:{%s})", escapeTag(f.TenantID), escapeTag(f.WorkspaceID))
	if f.DocType != "" {
		query = fmt.Sprintf("(%s @doc_type:{%s})", query, escapeTag(f.DocType))
	}
	if f.ContextType != "" {
		query = fmt.Sprintf("(%s @context_type:{%s})", query, escapeTag(f.ContextType))
	}
	if len(f.DocumentIDs) > 0 {
		ids := make([]string, len(f.DocumentIDs))
		for i, id := range f.DocumentIDs {
			ids[i] = escapeTag(id)
		}
		query = fmt.Sprintf("(%s @document_id:{%s})", query, strings.Join(ids, " | "))
	}
	return fmt.Sprintf("(%s)=>[KNN 50 @embedding $vec]", query)
}

var tagEscaper = strings.NewReplacer("-", "\\-", " ", "\\ ", ".", "\\.")

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}
