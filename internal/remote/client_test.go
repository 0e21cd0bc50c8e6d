package remote

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

const backendURL = "http://backend.test"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	t.Cleanup(func() {
		gock.RestoreClient(httpClient)
		gock.Off()
	})
	return NewClient(config.BackendConfig{URL: backendURL + "/", Timeout: time.Minute}, httpClient, slog.Default())
}

func TestClient_Upsert(t *testing.T) {
	c := newTestClient(t)

	gock.New(backendURL).
		Post("/api/upsert").
		MatchType("json").
		JSON(map[string]string{"id": "42"}).
		Reply(http.StatusOK).
		JSON(map[string]string{"message": "indexed"})

	require.NoError(t, c.Upsert(context.Background(), "42"))
	assert.True(t, gock.IsDone())
}

func TestClient_Generate(t *testing.T) {
	c := newTestClient(t)

	gock.New(backendURL).
		Post("/api/generate").
		MatchType("json").
		JSON(map[string]string{"prompt": "Effects of X on Y", "id": "42"}).
		Reply(http.StatusOK).
		JSON(map[string]string{"systematic_review": "<generated text>"})

	text, err := c.Generate(context.Background(), "Effects of X on Y", "42")
	require.NoError(t, err)
	assert.Equal(t, "<generated text>", text)
	assert.True(t, gock.IsDone())
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
		call  func(c *Client) error
	}{
		{
			name: "server error status",
			setup: func() {
				gock.New(backendURL).Post("/api/generate").Reply(http.StatusInternalServerError).
					JSON(map[string]string{"error": "model crashed"})
			},
			call: func(c *Client) error {
				_, err := c.Generate(context.Background(), "p", "42")
				return err
			},
		},
		{
			name: "error field with ok status",
			setup: func() {
				gock.New(backendURL).Post("/api/quality_check").Reply(http.StatusOK).
					JSON(map[string]string{"error": "no files"})
			},
			call: func(c *Client) error { return c.QualityCheck(context.Background(), "42") },
		},
		{
			name: "empty review",
			setup: func() {
				gock.New(backendURL).Post("/api/generate").Reply(http.StatusOK).
					JSON(map[string]string{"systematic_review": "   "})
			},
			call: func(c *Client) error {
				_, err := c.Generate(context.Background(), "p", "42")
				return err
			},
		},
		{
			name: "non json body",
			setup: func() {
				gock.New(backendURL).Post("/api/upsert").Reply(http.StatusOK).BodyString("<html>")
			},
			call: func(c *Client) error { return c.Upsert(context.Background(), "42") },
		},
		{
			name: "bad gateway with plain body",
			setup: func() {
				gock.New(backendURL).Post("/api/upsert").Reply(http.StatusBadGateway).BodyString("upstream down")
			},
			call: func(c *Client) error { return c.Upsert(context.Background(), "42") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			tt.setup()

			err := tt.call(c)
			assert.ErrorIs(t, err, core.ErrTransientExternal)
			assert.True(t, gock.IsDone())
		})
	}
}
