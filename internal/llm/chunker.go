package llm

import "strings"

const (
	defaultChunkSize    = 1500
	defaultChunkOverlap = 200
)

// SplitText cuts text into chunks of at most size bytes on word boundaries.
// Consecutive chunks share roughly overlap bytes of trailing words. A single
// word longer than size becomes its own chunk.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		length := 0
		for end < len(words) {
			add := len(words[end])
			if end > start {
				add++
			}
			if length+add > size && end > start {
				break
			}
			length += add
			end++
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}

		// Step back over trailing words that fit in the overlap window.
		next := end
		back := 0
		for next-1 > start && back+len(words[next-1])+1 <= overlap {
			back += len(words[next-1]) + 1
			next--
		}
		start = next
	}
	return chunks
}
