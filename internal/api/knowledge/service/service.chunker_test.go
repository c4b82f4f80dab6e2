// Package knowledgesvc - Test chunker: phủ kín text, offset tăng nghiêm ngặt.
package knowledgesvc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	text := "This is a short document."
	chunks := ChunkText(text, ChunkSize, ChunkOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, text, chunks[0].Text)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", ChunkSize, ChunkOverlap))
}

// Text 2000 ký tự: mọi chunk ≤ 800, offset tăng nghiêm ngặt, phủ kín toàn bộ
func TestChunkText_LongTextFullCoverage(t *testing.T) {
	var sb strings.Builder
	for sb.Len() < 2000 {
		sb.WriteString("The apartment has a fully equipped kitchen. The balcony faces the sea. ")
	}
	text := sb.String()[:2000]

	chunks := ChunkText(text, ChunkSize, ChunkOverlap)
	require.Greater(t, len(chunks), 1)

	prevOffset := -1
	coveredTo := 0
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), ChunkSize, "chunk %d quá dài", i)
		assert.Greater(t, chunk.Offset, prevOffset, "offset phải tăng nghiêm ngặt")
		// Chunk phải khớp đúng vị trí của nó trong text gốc
		assert.Equal(t, text[chunk.Offset:chunk.Offset+len(chunk.Text)], chunk.Text)
		// Không có lỗ hổng giữa các chunk (overlap cho phép Offset <= coveredTo)
		assert.LessOrEqual(t, chunk.Offset, coveredTo, "có lỗ hổng trước chunk %d", i)
		if end := chunk.Offset + len(chunk.Text); end > coveredTo {
			coveredTo = end
		}
		prevOffset = chunk.Offset
	}
	assert.Equal(t, len(text), coveredTo, "các chunk phải phủ tới cuối text")
}

// Điểm cắt ưu tiên ranh giới câu gần cuối chunk nhất
func TestChunkText_CutsAtSentenceBoundary(t *testing.T) {
	first := strings.Repeat("a", 500) + ". "
	text := first + strings.Repeat("b", 600)

	chunks := ChunkText(text, 800, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, first, chunks[0].Text)
	assert.Equal(t, len(first), chunks[1].Offset)
}

// Không có ranh giới câu thì lùi về khoảng trắng gần nhất
func TestChunkText_FallsBackToSpace(t *testing.T) {
	text := strings.Repeat("a", 700) + " " + strings.Repeat("b", 400)

	chunks := ChunkText(text, 800, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, strings.Repeat("a", 700)+" ", chunks[0].Text)
}

// Overlap không hợp lệ bị bỏ qua, chunk vẫn tiến về phía trước
func TestChunkText_InvalidOverlapIgnored(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := ChunkText(text, 800, 900)
	require.NotEmpty(t, chunks)
	prev := -1
	for _, chunk := range chunks {
		assert.Greater(t, chunk.Offset, prev)
		prev = chunk.Offset
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(text), last.Offset+len(last.Text))
}
