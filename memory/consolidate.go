package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"purplefabric.ai/graphrag/chat"
)

// candidateAction is the LLM's decision for one extracted candidate memory.
type candidateAction string

const (
	actionAdd    candidateAction = "ADD"
	actionUpdate candidateAction = "UPDATE"
	actionNoop   candidateAction = "NOOP"
)

// rawCandidate is a fact pulled out of the turn, before any consolidation
// decision has been made against existing memories.
type rawCandidate struct {
	Type       Type    `json:"type"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
}

type extractionResponse struct {
	Candidates []rawCandidate `json:"candidates"`
}

const extractionSystemPrompt = `You extract durable memories from a conversation turn.
For each fact worth remembering, classify its type as one of: semantic, event, preference, decision.
Score importance from 0.0 to 1.0. Respond with JSON: {"candidates":[{"type":...,"content":...,"importance":...}]}`

// consolidationDecision is the LLM's ADD/UPDATE/NOOP verdict for one
// candidate, made against the candidate's top-3 similar existing memories.
type consolidationDecision struct {
	Action     candidateAction `json:"action"`
	Content    string          `json:"content"`
	Importance float64         `json:"importance"`
	TargetID   string          `json:"target_id,omitempty"`
}

const consolidationSystemPromptTemplate = `You decide how a newly extracted candidate memory relates to a user's existing memories.
Candidate fact (type=%s, importance=%.2f): %q

Existing similar memories, most similar first:
%s

Decide one action:
- ADD: the candidate is new information not already captured by any existing memory above
- UPDATE: the candidate corrects or refines one of the existing memories (target_id must be that memory's id)
- NOOP: the candidate is already fully captured and adds nothing

Respond with JSON: {"action":...,"content":...,"importance":...,"target_id":...}`

// ExtractMemories sends the latest turn to the chat model to propose raw
// candidate facts, then for each candidate retrieves its top-3 similar
// existing memories and asks the chat model for a consolidation decision
// (ADD / UPDATE target_id / NOOP) made against those records, per §4.3.
// ADD is applied as a new record, UPDATE as a content overwrite against
// target_id, and a core-block rewrite is triggered whenever an applied ADD
// or UPDATE decision carries importance at or above the 0.8 threshold;
// NOOP decisions never trigger it.
func (s *Store) ExtractMemories(ctx context.Context, agentID, userID, turnText string) ([]Record, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("memory: ExtractMemories requires a chat model")
	}

	resp, err := s.chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: turnText},
		},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: ExtractMemories chat call: %w", err)
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(extractJSONBody(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("memory: ExtractMemories parse candidates: %w", err)
	}

	var stored []Record
	needsCoreRewrite := false
	for _, raw := range parsed.Candidates {
		decision, err := s.consolidate(ctx, agentID, userID, raw)
		if err != nil {
			return stored, err
		}

		switch decision.Action {
		case actionAdd:
			rec, err := s.AddMemory(ctx, agentID, userID, AddRequest{
				Type:       raw.Type,
				Content:    decision.Content,
				Importance: decision.Importance,
			})
			if err != nil {
				return stored, err
			}
			stored = append(stored, rec)
		case actionUpdate:
			if decision.TargetID == "" {
				continue
			}
			rec, err := s.updateMemoryContent(ctx, PoolFor(raw.Type), agentID, userID, decision.TargetID, decision.Content, decision.Importance)
			if err != nil {
				continue
			}
			stored = append(stored, rec)
		case actionNoop:
			continue
		}
		if decision.Importance >= 0.8 {
			needsCoreRewrite = true
		}
	}

	if needsCoreRewrite {
		if err := s.rewriteCoreBlock(ctx, agentID, userID); err != nil {
			return stored, err
		}
	}

	return stored, nil
}

// consolidate looks up raw's top-3 similar existing memories and asks the
// chat model to decide ADD/UPDATE/NOOP against them. With no similar
// memories on record (or no embedding model configured to find them), the
// candidate is always ADDed — there is nothing to consolidate against.
func (s *Store) consolidate(ctx context.Context, agentID, userID string, raw rawCandidate) (consolidationDecision, error) {
	similar, err := s.SearchMemories(ctx, agentID, userID, raw.Content, 3)
	if err != nil || len(similar) == 0 {
		return consolidationDecision{Action: actionAdd, Content: raw.Content, Importance: raw.Importance}, nil
	}

	var sb strings.Builder
	for _, hit := range similar {
		fmt.Fprintf(&sb, "- id=%s (similarity=%.2f, importance=%.2f): %s\n", hit.Record.MemoryID, hit.Similarity, hit.Record.Importance, hit.Record.Content)
	}

	resp, err := s.chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: fmt.Sprintf(consolidationSystemPromptTemplate, raw.Type, raw.Importance, raw.Content, sb.String())},
		},
		Temperature: 0,
		MaxTokens:   512,
	})
	if err != nil {
		return consolidationDecision{}, fmt.Errorf("memory: consolidate chat call: %w", err)
	}

	return parseConsolidationDecision(resp.Content, raw)
}

// parseConsolidationDecision decodes the chat model's consolidation
// response, falling back to raw's own content/importance for any field
// the model left empty or zero.
func parseConsolidationDecision(chatContent string, raw rawCandidate) (consolidationDecision, error) {
	var decision consolidationDecision
	if err := json.Unmarshal([]byte(extractJSONBody(chatContent)), &decision); err != nil {
		return consolidationDecision{}, fmt.Errorf("memory: consolidate parse decision: %w", err)
	}
	if decision.Content == "" {
		decision.Content = raw.Content
	}
	if decision.Importance == 0 {
		decision.Importance = raw.Importance
	}
	return decision, nil
}

func (s *Store) updateMemoryContent(ctx context.Context, pool Pool, agentID, userID, memoryID, content string, importance float64) (Record, error) {
	key := recordKey(pool, agentID, userID, memoryID)
	rec, err := s.getRecord(ctx, key)
	if err != nil {
		return Record{}, fmt.Errorf("memory: updateMemoryContent read: %w", err)
	}

	rec.Content = content
	if importance > 0 {
		rec.Importance = importance
	}
	if s.embed != nil {
		vecs, err := s.embed.Embed(ctx, []string{content})
		if err == nil && len(vecs) == 1 {
			rec.Embedding = vecs[0]
		}
	}

	if err := s.setJSON(ctx, key, rec); err != nil {
		return Record{}, fmt.Errorf("memory: updateMemoryContent write: %w", err)
	}
	return rec, nil
}

// rewriteCoreBlock re-derives the core block from every high-importance
// active memory across both pools, concatenating their content up to
// maxCoreBlockChars, per §4.3's "re-derived on high-importance
// accumulation" rule.
func (s *Store) rewriteCoreBlock(ctx context.Context, agentID, userID string) error {
	var highImportance []Record

	for _, prefix := range []string{
		fmt.Sprintf("memory:agent:%s:%s:", agentID, userID),
		fmt.Sprintf("memory:user:%s:", userID),
	} {
		var cursor uint64
		for {
			keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 200).Result()
			if err != nil {
				return fmt.Errorf("memory: rewriteCoreBlock scan: %w", err)
			}
			for _, key := range keys {
				rec, err := s.getRecord(ctx, key)
				if err != nil || rec.Status != StatusActive || rec.Importance < 0.8 {
					continue
				}
				highImportance = append(highImportance, rec)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	var sb strings.Builder
	for _, rec := range highImportance {
		line := fmt.Sprintf("- %s\n", rec.Content)
		if sb.Len()+len(line) > maxCoreBlockChars {
			break
		}
		sb.WriteString(line)
	}

	return s.setCoreBlock(ctx, agentID, userID, sb.String())
}

// extractJSONBody strips a markdown code fence around a JSON body, if any,
// mirroring the chat-response cleanup the query generator also performs.
func extractJSONBody(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

const (
	decaySoftDays = 30
	decayHardDays = 90
)

const (
	decaySoftFactor              = 0.9
	decayImportanceMin           = 0.1
	hardInvalidateMaxImportance  = 0.3
	hardInvalidateMaxAccessCount = 2
)

// DecayMemories applies the two-tier decay rule (§4.3): memories idle past
// decayHardDays are only invalidated outright if they're also low
// importance and rarely recalled (importance < 0.3 and access_count < 2) —
// an important, frequently-recalled memory never gets hard-invalidated
// merely for being old. Memories idle past decaySoftDays with zero
// recalls have their importance decayed by decaySoftFactor, floored at
// decayImportanceMin, giving them more decay cycles before they age out of
// recall. Operates across both pools for one (agentID, userID) scope.
func (s *Store) DecayMemories(ctx context.Context, agentID, userID string) (int, error) {
	now := time.Now()
	decayed := 0

	for _, prefix := range []string{
		fmt.Sprintf("memory:agent:%s:%s:", agentID, userID),
		fmt.Sprintf("memory:user:%s:", userID),
	} {
		n, err := s.decayPrefix(ctx, prefix, now)
		if err != nil {
			return decayed, err
		}
		decayed += n
	}
	return decayed, nil
}

func (s *Store) decayPrefix(ctx context.Context, prefix string, now time.Time) (int, error) {
	var cursor uint64
	decayed := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return decayed, fmt.Errorf("memory: decayPrefix scan: %w", err)
		}

		for _, key := range keys {
			rec, err := s.getRecord(ctx, key)
			if err != nil || rec.Status != StatusActive {
				continue
			}
			idle := now.Sub(rec.LastAccessed)
			switch {
			case idle > decayHardDays*24*time.Hour &&
				rec.Importance < hardInvalidateMaxImportance &&
				rec.AccessCount < hardInvalidateMaxAccessCount:
				rec.Status = StatusInvalid
				decayed++
			case idle > decaySoftDays*24*time.Hour && rec.AccessCount == 0:
				rec.Importance = rec.Importance * decaySoftFactor
				if rec.Importance < decayImportanceMin {
					rec.Importance = decayImportanceMin
				}
				decayed++
			default:
				continue
			}
			if err := s.setJSON(ctx, key, rec); err != nil {
				return decayed, fmt.Errorf("memory: decayPrefix write: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return decayed, nil
		}
	}
}
