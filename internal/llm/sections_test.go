package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSections(t *testing.T) {
	sections, err := DefaultSections()
	require.NoError(t, err)

	var titles []string
	limits := map[string]int{}
	for _, s := range sections {
		titles = append(titles, s.Title)
		limits[s.Title] = s.WordLimit
		assert.NotEmpty(t, s.Instructions, s.Title)
	}
	assert.Equal(t, []string{"Background", "Methods", "Results", "Discussion", "Conclusion"}, titles)
	assert.Equal(t, map[string]int{"Background": 1200, "Methods": 1500, "Results": 2500, "Discussion": 3000, "Conclusion": 600}, limits)
}

func TestParseSections_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "sections: []",
		"no title":       "sections:\n  - word_limit: 10\n",
		"zero limit":     "sections:\n  - title: A\n",
		"duplicate":      "sections:\n  - title: A\n    word_limit: 1\n  - title: A\n    word_limit: 1\n",
		"malformed yaml": "sections: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSections([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestCleanSection(t *testing.T) {
	s := Section{Title: "T", WordLimit: 2}

	t.Run("removes blank and repeated lines", func(t *testing.T) {
		got := cleanSection("\nalpha\n\nbeta\nalpha\n  \nbeta\ngamma\n", Section{Title: "T", WordLimit: 100})
		assert.Equal(t, "alpha\nbeta\ngamma", got)
	})

	t.Run("truncates to word limit times six", func(t *testing.T) {
		got := cleanSection(strings.Repeat("x", 50), s)
		assert.Len(t, got, 12)
	})

	t.Run("does not split runes", func(t *testing.T) {
		got := cleanSection("aaaaaaaaaaaé", s)
		assert.Equal(t, "aaaaaaaaaaa", got)
	})
}
