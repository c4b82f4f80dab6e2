package knowledgesvc

import "strings"

const (
	// ChunkSize là độ dài tối đa của một chunk (ký tự)
	ChunkSize = 800

	// ChunkOverlap là số ký tự lặp lại giữa hai chunk liên tiếp để
	// không mất ngữ cảnh tại ranh giới chunk
	ChunkOverlap = 200
)

// TextChunk là một đoạn của document sau khi chia nhỏ
type TextChunk struct {
	Offset int
	Text   string
}

// Các ranh giới câu được ưu tiên khi tìm điểm cắt chunk
var sentenceBoundaries = []string{". ", ".\n", "! ", "?\n"}

// ChunkText chia text thành các chunk tối đa `size` ký tự với `overlap`
// ký tự chồng lấn. Điểm cắt ưu tiên ranh giới câu gần cuối chunk nhất,
// không có thì lùi về khoảng trắng gần nhất, cuối cùng mới cắt cứng.
// Offset của các chunk tăng nghiêm ngặt và phủ kín toàn bộ text.
func ChunkText(text string, size, overlap int) []TextChunk {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = ChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	if len(text) <= size {
		return []TextChunk{{Offset: 0, Text: text}}
	}

	var chunks []TextChunk
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, TextChunk{Offset: start, Text: text[start:]})
			break
		}

		window := text[start:end]
		cut := end

		best := -1
		for _, boundary := range sentenceBoundaries {
			if idx := strings.LastIndex(window, boundary); idx >= 0 && idx+len(boundary) > best {
				best = idx + len(boundary)
			}
		}
		if best > 0 {
			cut = start + best
		} else if sp := strings.LastIndexByte(window, ' '); sp > 0 {
			cut = start + sp + 1
		}

		chunks = append(chunks, TextChunk{Offset: start, Text: text[start:cut]})

		next := cut - overlap
		if next <= start {
			// Overlap không được kéo lùi điểm bắt đầu, chunk phải luôn tiến
			next = cut
		}
		start = next
	}

	return chunks
}
