package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxSessionMessages = 100
	maxCoreBlockChars  = 2000
)

// SessionMessage is one turn in a bounded agent/user conversation log.
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func sessionKey(agentID, userID, sessionID string) string {
	return fmt.Sprintf("agent_session:%s:%s:%s", agentID, userID, sessionID)
}

func sessionsIndexKey(agentID, userID string) string {
	return fmt.Sprintf("agent_sessions:%s:%s", agentID, userID)
}

func coreBlockKey(agentID, userID string) string {
	return fmt.Sprintf("agent_core_memory:%s:%s", agentID, userID)
}

// AppendSessionMessage appends a message to the named session's log,
// trimming the log to the last maxSessionMessages entries (§4.3 "bounded
// session log") and bumping the session's position in the per-scope
// recency index so ListSessions can return most-recent-first.
func (s *Store) AppendSessionMessage(ctx context.Context, agentID, userID, sessionID string, msg SessionMessage) error {
	key := sessionKey(agentID, userID, sessionID)

	var log []SessionMessage
	if err := s.getJSON(ctx, key, &log); err != nil && !isRedisNil(err) {
		return fmt.Errorf("memory: AppendSessionMessage read: %w", err)
	}

	log = append(log, msg)
	if len(log) > maxSessionMessages {
		log = log[len(log)-maxSessionMessages:]
	}

	if err := s.setJSON(ctx, key, log); err != nil {
		return fmt.Errorf("memory: AppendSessionMessage write: %w", err)
	}

	score := float64(msg.Timestamp.Unix())
	return s.client.ZAdd(ctx, sessionsIndexKey(agentID, userID), redis.Z{Score: score, Member: sessionID}).Err()
}

// SessionHistory returns the full bounded log for one session.
func (s *Store) SessionHistory(ctx context.Context, agentID, userID, sessionID string) ([]SessionMessage, error) {
	var log []SessionMessage
	if err := s.getJSON(ctx, sessionKey(agentID, userID, sessionID), &log); err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: SessionHistory: %w", err)
	}
	return log, nil
}

// ListSessions returns session IDs for (agentID, userID) most-recent-first.
func (s *Store) ListSessions(ctx context.Context, agentID, userID string, limit int) ([]string, error) {
	ids, err := s.client.ZRevRange(ctx, sessionsIndexKey(agentID, userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: ListSessions: %w", err)
	}
	return ids, nil
}

// CoreBlock is the always-in-context summary distilled from
// high-importance memories, capped at maxCoreBlockChars (§4.3).
type CoreBlock struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// getCoreBlock reads the current core block, treating a missing key as an
// empty block rather than an error.
func (s *Store) getCoreBlock(ctx context.Context, agentID, userID string) (CoreBlock, error) {
	var block CoreBlock
	if err := s.getJSON(ctx, coreBlockKey(agentID, userID), &block); err != nil {
		if isRedisNil(err) {
			return CoreBlock{}, nil
		}
		return CoreBlock{}, fmt.Errorf("memory: getCoreBlock: %w", err)
	}
	return block, nil
}

// setCoreBlock persists the core block, truncating to maxCoreBlockChars if
// the caller's content somehow exceeds the cap.
func (s *Store) setCoreBlock(ctx context.Context, agentID, userID string, content string) error {
	if len(content) > maxCoreBlockChars {
		content = content[:maxCoreBlockChars]
	}
	block := CoreBlock{Content: content, UpdatedAt: time.Now()}
	return s.setJSON(ctx, coreBlockKey(agentID, userID), block)
}

// AssembleMemoryContext builds the prompt-ready context block: the core
// block followed by up to topK recalled memories relevant to query, per
// §4.3's "context assembly" contract.
func (s *Store) AssembleMemoryContext(ctx context.Context, agentID, userID, query string, topK int) (string, error) {
	core, err := s.getCoreBlock(ctx, agentID, userID)
	if err != nil {
		return "", err
	}

	recalled, err := s.SearchMemories(ctx, agentID, userID, query, topK)
	if err != nil {
		return "", err
	}

	var sb []byte
	if core.Content != "" {
		sb = append(sb, "# Core memory\n"...)
		sb = append(sb, core.Content...)
		sb = append(sb, "\n\n"...)
	}
	if len(recalled) > 0 {
		sb = append(sb, "# Relevant memories\n"...)
		for _, r := range recalled {
			sb = append(sb, fmt.Sprintf("- (%s) %s\n", r.Record.Type, r.Record.Content)...)
		}
	}
	return string(sb), nil
}

func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
