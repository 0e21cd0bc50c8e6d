package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIModel_Complete(t *testing.T) {
	defer gock.Off()

	gock.New("http://llm.test").
		Post("/v1/chat/completions").
		MatchType("json").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "  section text \n"}}},
		})

	// The default openai client uses http.DefaultTransport, which gock intercepts.
	m := NewOpenAIModel("sk-test", "http://llm.test/v1", "gpt-test")

	got, err := m.Complete(context.Background(), "write")
	require.NoError(t, err)
	assert.Equal(t, "section text", got)
	assert.True(t, gock.IsDone())
}
