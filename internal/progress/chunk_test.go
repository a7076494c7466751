package progress

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int, subject string) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("q%03d", i+1), Subject: subject, Ordinal: i}
	}
	return items
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 10, ChunkSize("math"))
	assert.Equal(t, 15, ChunkSize("english"))
	assert.Equal(t, 12, ChunkSize("japanese"))
	assert.Equal(t, 8, ChunkSize("science"))
	assert.Equal(t, 10, ChunkSize("social"))
	assert.Equal(t, 10, ChunkSize("music"))
	assert.Equal(t, 10, ChunkSize(""))
}

func TestPartition(t *testing.T) {
	chunks := Partition(makeItems(25, "math"), "math")
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].Number)
	assert.Equal(t, 2, chunks[1].Number)
	assert.Equal(t, 3, chunks[2].Number)
	assert.Len(t, chunks[0].Items, 10)
	assert.Len(t, chunks[1].Items, 10)
	assert.Len(t, chunks[2].Items, 5)

	// order preserved across chunk boundaries
	assert.Equal(t, "q010", chunks[0].Items[9].ID)
	assert.Equal(t, "q011", chunks[1].Items[0].ID)
}

func TestPartitionExactMultiple(t *testing.T) {
	chunks := Partition(makeItems(16, "science"), "science")
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Items, 8)
	assert.Len(t, chunks[1].Items, 8)
}

func TestPartitionFewerThanOneChunk(t *testing.T) {
	chunks := Partition(makeItems(3, "english"), "english")
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Number)
	assert.Len(t, chunks[0].Items, 3)
}

func TestPartitionEmpty(t *testing.T) {
	assert.Nil(t, Partition(nil, "math"))
	assert.Nil(t, Partition([]Item{}, "math"))
}
