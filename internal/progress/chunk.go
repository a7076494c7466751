package progress

import "time"

// Item is the minimal view of a study item the chunker needs. Storage types are
// mapped into it at the boundary.
type Item struct {
	ID         string
	Subject    string
	Difficulty string
	Ordinal    int
}

// Attempt is one recorded submission against an item.
type Attempt struct {
	UserID  string
	ItemID  string
	Correct bool
	At      time.Time
}

// Chunk is a derived, contiguous slice of a source's items. Not persisted;
// identified by (source, stage, number).
type Chunk struct {
	Source string `json:"source"`
	Stage  int    `json:"stage"`
	Number int    `json:"number"`
	Items  []Item `json:"-"`
}

var chunkSizes = map[string]int{
	"math":     10,
	"english":  15,
	"japanese": 12,
	"science":  8,
	"social":   10,
}

const defaultChunkSize = 10

// ChunkSize returns the per-subject chunk size; unknown subjects get the default.
func ChunkSize(subject string) int {
	if n, ok := chunkSizes[subject]; ok {
		return n
	}
	return defaultChunkSize
}

// Partition splits items into consecutive chunks of ChunkSize(subject), in input
// order. Chunk numbers are 1-based; the final chunk may be shorter. An empty
// input yields no chunks. Source and Stage are left for the caller to stamp.
func Partition(items []Item, subject string) []Chunk {
	if len(items) == 0 {
		return nil
	}
	size := ChunkSize(subject)
	chunks := make([]Chunk, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, Chunk{
			Number: len(chunks) + 1,
			Items:  items[start:end],
		})
	}
	return chunks
}
