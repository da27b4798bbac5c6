package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs a float32 embedding into the little-endian byte blob
// RediSearch expects for a FLOAT32 vector field.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// parseSearchResult decodes the raw FT.SEARCH reply (issued through Do,
// since go-redis has no typed RediSearch response type) into Chunks.
// FT.SEARCH without RETURN returns [total, id1, fields1, id2, fields2, ...]
// where each fields slice is a flat [k1, v1, k2, v2, ...] array.
func parseSearchResult(raw interface{}) ([]Chunk, error) {
	rows, ok := raw.([]interface{})
	if !ok || len(rows) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, len(rows)/2)
	for i := 1; i+1 < len(rows); i += 2 {
		docKey, _ := rows[i].(string)
		fields, ok := rows[i+1].([]interface{})
		if !ok {
			continue
		}

		chunk := Chunk{ChunkID: docKey}
		for j := 0; j+1 < len(fields); j += 2 {
			key, _ := fields[j].(string)
			value := fields[j+1]
			applyField(&chunk, key, value)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func applyField(chunk *Chunk, key string, value interface{}) {
	str := fmt.Sprintf("%v", value)
	switch key {
	case "$.document_id", "document_id":
		chunk.DocumentID = str
	case "$.document_name", "document_name":
		chunk.DocumentName = str
	case "$.text", "text":
		chunk.Text = str
	case "$.chunk_index", "chunk_index":
		chunk.ChunkIndex = atoiSafe(str)
	case "$.page_start", "page_start":
		chunk.PageStart = atoiSafe(str)
	case "$.page_end", "page_end":
		chunk.PageEnd = atoiSafe(str)
	case "__embedding_score":
		chunk.Similarity = 1 - atofSafe(str)
	}
}

func atoiSafe(s string) int {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0
	}
	return n
}

func atofSafe(s string) float64 {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	if err != nil {
		return 0
	}
	return f
}
