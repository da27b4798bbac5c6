package extraction

import "fmt"

// Chunk is one slice of a parsed document with a stable id, per §4.4
// "Parse & Chunk": `{doc}_chunk_{i}`, page range, character range, and an
// optional heading path.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	PageStart   int
	PageEnd     int
	CharStart   int
	CharEnd     int
	HeadingPath string
}

const defaultChunkSize = 1500

// ChunkDocument splits text into fixed-size, stably-IDed chunks. chunkSize
// is a character count; 0 selects defaultChunkSize. Page numbers are left
// at zero here since plain text carries no page boundaries; callers with
// page-aware parsers (PDF, DOCX) should set PageStart/PageEnd afterward.
func ChunkDocument(documentID, text string, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	runes := []rune(text)
	var chunks []Chunk
	for i, start := 0, 0; start < len(runes); i, start = i+1, start+chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s_chunk_%d", documentID, i),
			DocumentID: documentID,
			Text:       string(runes[start:end]),
			CharStart:  start,
			CharEnd:    end,
		})
	}
	return chunks
}
