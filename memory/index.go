package memory

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	agentIndexName = "idx:agent_memories"
	userIndexName  = "idx:user_memories"
	embeddingDim   = 1536
)

func newMemoryID() string {
	return "mem_" + uuid.NewString()
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *Store) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// ensureIndexes creates idx:agent_memories and idx:user_memories via
// FT.CREATE if they do not already exist, TAG-indexing agent_id/user_id/
// type/status, NUMERIC-indexing importance/created_at/last_accessed, and
// a FLOAT32 HNSW cosine field for embedding, per §4.3. An index that
// already exists is left as it is: its field set is not compared against
// this schema, so a diverged index is neither detected nor recreated.
func (s *Store) ensureIndexes(ctx context.Context) error {
	if err := s.createIndexIfMissing(ctx, agentIndexName, "memory:agent:", true); err != nil {
		return err
	}
	return s.createIndexIfMissing(ctx, userIndexName, "memory:user:", false)
}

func (s *Store) createIndexIfMissing(ctx context.Context, indexName, prefix string, hasAgentID bool) error {
	args := []interface{}{
		"FT.CREATE", indexName, "ON", "JSON", "PREFIX", "1", prefix,
		"SCHEMA",
	}
	if hasAgentID {
		args = append(args, "$.agent_id", "AS", "agent_id", "TAG")
	}
	args = append(args,
		"$.user_id", "AS", "user_id", "TAG",
		"$.type", "AS", "type", "TAG",
		"$.status", "AS", "status", "TAG",
		"$.importance", "AS", "importance", "NUMERIC",
		"$.created_at", "AS", "created_at", "NUMERIC",
		"$.last_accessed", "AS", "last_accessed", "NUMERIC",
		"$.embedding", "AS", "embedding", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32", "DIM", strconv.Itoa(embeddingDim), "DISTANCE_METRIC", "COSINE",
	)

	if err := s.client.Do(ctx, args...).Err(); err != nil {
		if isIndexExistsErr(err) {
			return nil
		}
		return fmt.Errorf("memory: FT.CREATE %s: %w", indexName, err)
	}
	return nil
}

func isIndexExistsErr(err error) bool {
	return err != nil && (err.Error() == "Index already exists" || err.Error() == "index already exists")
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// searchPool runs FT.SEARCH over one pool's index, filtered per its
// scoping rule, returning every match with a similarity score.
func (s *Store) searchPool(ctx context.Context, indexName, filterExpr string, queryEmbedding []float32, topK int) ([]Recalled, error) {
	blob := encodeVector(queryEmbedding)
	args := []interface{}{
		"FT.SEARCH", indexName, fmt.Sprintf("(%s)=>[KNN %d @embedding $vec]", filterExpr, topK),
		"PARAMS", "2", "vec", string(blob),
		"SORTBY", "__embedding_score",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}

	raw, err := s.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("memory: FT.SEARCH %s: %w", indexName, err)
	}
	return parseMemorySearch(raw)
}

func parseMemorySearch(raw interface{}) ([]Recalled, error) {
	rows, ok := raw.([]interface{})
	if !ok || len(rows) == 0 {
		return nil, nil
	}

	var out []Recalled
	for i := 1; i+1 < len(rows); i += 2 {
		fields, ok := rows[i+1].([]interface{})
		if !ok {
			continue
		}
		var rec Record
		var score float64
		for j := 0; j+1 < len(fields); j += 2 {
			key, _ := fields[j].(string)
			value := fields[j+1]
			switch key {
			case "$":
				if str, ok := value.(string); ok {
					_ = json.Unmarshal([]byte(str), &rec)
				}
			case "__embedding_score":
				if str, ok := value.(string); ok {
					f, err := strconv.ParseFloat(str, 64)
					if err == nil {
						score = 1 - f
					}
				}
			}
		}
		out = append(out, Recalled{Record: rec, Similarity: score})
	}
	return out, nil
}

// SearchMemories runs KNN on both pools per §4.3: the agent pool filtered
// by (agent_id, user_id), the user pool filtered by user_id alone. Results
// are unioned, results with similarity < 0.3 are dropped, the remainder
// sorted by similarity descending and truncated to topK. Access counts
// are bumped asynchronously so the read path never blocks on the write.
func (s *Store) SearchMemories(ctx context.Context, agentID, userID, query string, topK int) ([]Recalled, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("memory: SearchMemories requires an embedding model")
	}
	vecs, err := s.embed.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return nil, fmt.Errorf("memory: SearchMemories embed query: %w", err)
	}
	queryEmbedding := vecs[0]

	agentFilter := fmt.Sprintf("@agent_id:{%s} @user_id:{%s} @status:{%s}", escapeTag(agentID), escapeTag(userID), escapeTag(string(StatusActive)))
	userFilter := fmt.Sprintf("@user_id:{%s} @status:{%s}", escapeTag(userID), escapeTag(string(StatusActive)))

	agentResults, err := s.searchPool(ctx, agentIndexName, agentFilter, queryEmbedding, topK)
	if err != nil {
		return nil, err
	}
	userResults, err := s.searchPool(ctx, userIndexName, userFilter, queryEmbedding, topK)
	if err != nil {
		return nil, err
	}

	all := append(agentResults, userResults...)

	var filtered []Recalled
	for _, r := range all {
		if r.Similarity < 0.3 {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Similarity > filtered[j].Similarity })
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	for _, r := range filtered {
		s.touchAccess(recordKey(r.Record.Pool, r.Record.AgentID, r.Record.UserID, r.Record.MemoryID))
	}

	return filtered, nil
}

var tagEscaper = strings.NewReplacer("-", "\\-", " ", "\\ ", ".", "\\.", ":", "\\:")

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}
