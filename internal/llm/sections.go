package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sections.yaml
var sectionsYAML []byte

// Section is one part of a generated review.
type Section struct {
	Title        string `yaml:"title"`
	WordLimit    int    `yaml:"word_limit"`
	Instructions string `yaml:"instructions"`
}

// CharLimit is the hard cap applied to the generated text of the section.
func (s Section) CharLimit() int {
	return s.WordLimit * 6
}

type sectionCatalogue struct {
	Sections []Section `yaml:"sections"`
}

// DefaultSections returns the built-in section catalogue.
func DefaultSections() ([]Section, error) {
	return ParseSections(sectionsYAML)
}

// ParseSections decodes a section catalogue and checks every entry is usable.
func ParseSections(data []byte) ([]Section, error) {
	var cat sectionCatalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse section catalogue: %w", err)
	}
	if len(cat.Sections) == 0 {
		return nil, fmt.Errorf("section catalogue is empty")
	}
	seen := make(map[string]struct{}, len(cat.Sections))
	for i := range cat.Sections {
		s := &cat.Sections[i]
		s.Title = strings.TrimSpace(s.Title)
		s.Instructions = strings.TrimSpace(s.Instructions)
		if s.Title == "" {
			return nil, fmt.Errorf("section %d has no title", i)
		}
		if _, dup := seen[s.Title]; dup {
			return nil, fmt.Errorf("section %q is defined twice", s.Title)
		}
		seen[s.Title] = struct{}{}
		if s.WordLimit <= 0 {
			return nil, fmt.Errorf("section %q needs a positive word_limit", s.Title)
		}
	}
	return cat.Sections, nil
}

// cleanSection trims the model output, cuts it to the section's character
// budget and drops blank lines and exact repeats of earlier lines.
func cleanSection(raw string, s Section) string {
	text := strings.TrimSpace(raw)
	if limit := s.CharLimit(); len(text) > limit {
		text = truncateUTF8(text, limit)
	}

	lines := strings.Split(text, "\n")
	seen := make(map[string]struct{}, len(lines))
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
