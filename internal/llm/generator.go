package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/goframe/schema"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/storage"
)

// maxContextChars caps the retrieved material placed in one section prompt.
const maxContextChars = 2000

// Generator writes a review section by section. Each section sees the
// research question, the sections already written and the chunks of the
// review's attachments most similar to the question.
type Generator struct {
	model       TextModel
	prompts     *PromptManager
	provider    ModelProvider
	sections    []Section
	vectorStore storage.VectorStore
	contextDocs int
	logger      *slog.Logger
}

var _ core.Generator = (*Generator)(nil)

func NewGenerator(
	model TextModel,
	prompts *PromptManager,
	provider ModelProvider,
	sections []Section,
	vectorStore storage.VectorStore,
	contextDocs int,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		model:       model,
		prompts:     prompts,
		provider:    provider,
		sections:    sections,
		vectorStore: vectorStore,
		contextDocs: contextDocs,
		logger:      logger,
	}
}

// Generate returns the complete review text or an error; partially generated
// reviews are never returned.
func (g *Generator) Generate(ctx context.Context, prompt string, id core.ReviewID) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", core.ErrInvalidRequest)
	}

	written := make([]PreviousSection, 0, len(g.sections))
	for _, section := range g.sections {
		start := time.Now()
		text, err := g.generateSection(ctx, prompt, id, section, written)
		if err != nil {
			return "", err
		}
		g.logger.Info("section generated",
			"review_id", id,
			"section", section.Title,
			"chars", len(text),
			"duration", time.Since(start),
		)
		written = append(written, PreviousSection{Title: section.Title, Text: text})
	}

	var sb strings.Builder
	for i, s := range written {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "## %s\n\n%s", s.Title, s.Text)
	}
	return sb.String(), nil
}

func (g *Generator) generateSection(ctx context.Context, question string, id core.ReviewID, section Section, previous []PreviousSection) (string, error) {
	rendered, err := g.prompts.Render(ReviewSectionPrompt, g.provider, SectionPromptData{
		Question:         question,
		Title:            section.Title,
		Instructions:     section.Instructions,
		WordLimit:        section.WordLimit,
		PreviousSections: previous,
		Context:          g.retrieveContext(ctx, id, question+"\n"+section.Title),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt for section %s: %w", section.Title, err)
	}

	raw, err := g.complete(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("%w: section %s: %w", core.ErrTransientExternal, section.Title, err)
	}
	text := cleanSection(raw, section)
	if text == "" {
		return "", fmt.Errorf("%w: model returned an empty %s section", core.ErrTransientExternal, section.Title)
	}
	return text, nil
}

// retrieveContext is best effort: a review without indexed material still
// gets a prompt, just without reference text.
func (g *Generator) retrieveContext(ctx context.Context, id core.ReviewID, query string) string {
	if g.vectorStore == nil || g.contextDocs <= 0 {
		return ""
	}
	docs, err := g.vectorStore.SimilaritySearch(ctx, id, query, g.contextDocs)
	if err != nil {
		g.logger.Warn("context retrieval failed, generating without it", "review_id", id, "error", err)
		return ""
	}
	return buildContext(docs, maxContextChars)
}

func buildContext(docs []schema.Document, limit int) string {
	var sb strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.PageContent)
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if source, ok := doc.Metadata["source"].(string); ok && source != "" {
			fmt.Fprintf(&sb, "[%s]\n", source)
		}
		sb.WriteString(content)
		if sb.Len() >= limit {
			break
		}
	}
	return truncateUTF8(sb.String(), limit)
}

// complete calls the model but returns as soon as ctx is done, even if the
// underlying client ignores cancellation.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := g.model.Complete(ctx, prompt)
		resultCh <- result{resp, err}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out: %w", ctx.Err())
		}
		return "", ctx.Err()
	}
}
