package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/review-forge/internal/core"
)

func TestCollectionName(t *testing.T) {
	tests := []struct {
		id, model, want string
	}{
		{"42", "nomic-embed-text", "review_42_nomic-embed-text"},
		{"Abc_1", "gemini/text-embedding-004", "review_abc_1_gemini_text-embedding-004"},
		{"x", "mxbai-embed-large:latest", "review_x_mxbai-embed-large_latest"},
		{"x", "", "review_x_default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollectionName(core.ReviewID(tt.id), tt.model))
	}
}
