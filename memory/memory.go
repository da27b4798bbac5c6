// Package memory implements the per-user, per-agent long-term memory
// pool (§4.3): dual vector indexes over agent-scoped and user-scoped
// memory records, KNN recall, consolidation, decay, a bounded session
// log, and a core block. It generalizes the teacher's RedisRepository
// (db/repository/redis.go) — JSON-marshal-on-write cache convention,
// pub/sub-free polling-free design — combined with the
// FT.CREATE/FT.SEARCH escape hatch store/vector establishes for
// RediSearch commands go-redis has no typed method for.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/embed"
)

// Pool distinguishes the two memory scopes defined in §3.
type Pool string

const (
	PoolAgent Pool = "agent"
	PoolUser  Pool = "user"
)

// Type classifies a memory record; the type→pool mapping is fixed per the
// data model invariant: preference and decision are always user pool,
// semantic and event are always agent pool.
type Type string

const (
	TypeSemantic   Type = "semantic"
	TypeEvent      Type = "event"
	TypePreference Type = "preference"
	TypeDecision   Type = "decision"
)

// PoolFor returns the fixed pool a memory Type is routed to.
func PoolFor(t Type) Pool {
	switch t {
	case TypePreference, TypeDecision:
		return PoolUser
	default:
		return PoolAgent
	}
}

// Status marks whether a memory is still eligible for recall.
type Status string

const (
	StatusActive  Status = "active"
	StatusInvalid Status = "invalid"
)

// Record is one memory entry.
type Record struct {
	MemoryID        string    `json:"memory_id"`
	Pool            Pool      `json:"pool"`
	AgentID         string    `json:"agent_id,omitempty"`
	UserID          string    `json:"user_id"`
	Type            Type      `json:"type"`
	Content         string    `json:"content"`
	Importance      float64   `json:"importance"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	LastAccessed    time.Time `json:"last_accessed"`
	AccessCount     int       `json:"access_count"`
	Embedding       []float32 `json:"embedding,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	SourceSessionID string    `json:"source_session_id,omitempty"`
}

// AddRequest is the input to AddMemory.
type AddRequest struct {
	Type       Type
	Content    string
	Importance float64
	Tags       []string
	SessionID  string
}

// Recalled is one hit from SearchMemories.
type Recalled struct {
	Record     Record
	Similarity float64
}

// Store is the memory store adapter.
type Store struct {
	client *redis.Client
	embed  embed.Model
	chat   chat.Model
}

// New creates a memory store, verifying connectivity the same way
// store/vector and store/kv do.
func New(redisURL string, embedModel embed.Model, chatModel chat.Model) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("memory: failed to connect to Redis: %w", err)
	}

	return &Store{client: client, embed: embedModel, chat: chatModel}, nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func recordKey(pool Pool, agentID, userID, memoryID string) string {
	if pool == PoolUser {
		return fmt.Sprintf("memory:user:%s:%s", userID, memoryID)
	}
	return fmt.Sprintf("memory:agent:%s:%s:%s", agentID, userID, memoryID)
}

// AddMemory embeds content (best-effort) and stores the record in the
// pool fixed by its type. Embedding failure is non-fatal per §7: the
// record is stored without a vector, simply unavailable to KNN recall.
func (s *Store) AddMemory(ctx context.Context, agentID, userID string, req AddRequest) (Record, error) {
	pool := PoolFor(req.Type)

	record := Record{
		MemoryID:        newMemoryID(),
		Pool:            pool,
		AgentID:         agentID,
		UserID:          userID,
		Type:            req.Type,
		Content:         req.Content,
		Importance:      req.Importance,
		Status:          StatusActive,
		CreatedAt:       time.Now(),
		LastAccessed:    time.Now(),
		Tags:            req.Tags,
		SourceSessionID: req.SessionID,
	}

	if s.embed != nil {
		vecs, err := s.embed.Embed(ctx, []string{req.Content})
		if err == nil && len(vecs) == 1 {
			record.Embedding = vecs[0]
		}
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return Record{}, err
	}

	key := recordKey(pool, agentID, userID, record.MemoryID)
	if err := s.setJSON(ctx, key, record); err != nil {
		return Record{}, fmt.Errorf("memory: AddMemory: %w", err)
	}
	return record, nil
}

// getRecord reads one record by key.
func (s *Store) getRecord(ctx context.Context, key string) (Record, error) {
	var rec Record
	if err := s.getJSON(ctx, key, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// touchAccess bumps access_count and last_accessed for a recalled memory.
// SearchMemories fans this out as a bounded background task (§9 "fire-and-
// forget async work... map to bounded background tasks").
func (s *Store) touchAccess(key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rec, err := s.getRecord(ctx, key)
		if err != nil {
			return
		}
		rec.AccessCount++
		rec.LastAccessed = time.Now()
		_ = s.setJSON(ctx, key, rec)
	}()
}

// ClearAllAgentData removes the agent pool, sessions, core block, and
// memory-graph cache for agentID, leaving the user pool intact (§4.3
// lifecycle; cascades per the Agent delete invariant in §3).
func (s *Store) ClearAllAgentData(ctx context.Context, agentID, userID string) error {
	pattern := fmt.Sprintf("memory:agent:%s:%s:*", agentID, userID)
	if err := s.deleteByPattern(ctx, pattern); err != nil {
		return err
	}
	if err := s.deleteByPattern(ctx, fmt.Sprintf("agent_session:%s:%s:*", agentID, userID)); err != nil {
		return err
	}
	keys := []string{
		fmt.Sprintf("agent_sessions:%s:%s", agentID, userID),
		fmt.Sprintf("agent_core_memory:%s:%s", agentID, userID),
		fmt.Sprintf("memory_graph:%s:%s", agentID, userID),
	}
	return s.client.Del(ctx, keys...).Err()
}

// ClearAllUserData removes the user pool plus every cross-agent session,
// core block, and memory-graph cache for userID.
func (s *Store) ClearAllUserData(ctx context.Context, userID string) error {
	if err := s.deleteByPattern(ctx, fmt.Sprintf("memory:user:%s:*", userID)); err != nil {
		return err
	}
	if err := s.deleteByPattern(ctx, fmt.Sprintf("agent_session:*:%s:*", userID)); err != nil {
		return err
	}
	if err := s.deleteByPattern(ctx, fmt.Sprintf("agent_sessions:*:%s", userID)); err != nil {
		return err
	}
	if err := s.deleteByPattern(ctx, fmt.Sprintf("agent_core_memory:*:%s", userID)); err != nil {
		return err
	}
	return s.deleteByPattern(ctx, fmt.Sprintf("memory_graph:*:%s", userID))
}

func (s *Store) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("memory: scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("memory: delete %q: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
