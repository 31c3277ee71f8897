package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/server/dto"
	"github.com/mirae-labs/go-mirae/pkg/server/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func askRouter(t *testing.T) *gin.Engine {
	t.Helper()
	graphPath := filepath.Join(t.TempDir(), "graph.json")
	graph := map[string]interface{}{
		"nodes": []string{"Saturn", "House10", "Career"},
		"edges": []map[string]interface{}{
			{"src": "Saturn", "dst": "House10", "relation": "in", "weight": 0.9},
			{"src": "House10", "dst": "Career", "relation": "governs", "weight": 0.8},
		},
	}
	data, err := json.Marshal(graph)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(graphPath, data, 0o644))

	client, err := mirae.New(context.Background(), &config.Config{
		Sanitizer: config.SanitizerConfig{MaxInput: 1200, MaxDream: 2000, MaxName: 100},
		Session:   config.SessionConfig{MaxSize: 100, TTLMinutes: 30},
		RateLimit: config.RateLimitConfig{Requests: 30, WindowSeconds: 60},
		RAG:       config.RAGConfig{StreamChunkSize: 200},
		Graph:     config.GraphConfig{JSONPath: graphPath},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewAskHandler(client)
	r.POST("/v1/ask", h.Ask)
	return r
}

func postAsk(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAskResponseShape(t *testing.T) {
	r := askRouter(t)

	w := postAsk(r, `{"query": "What does Saturn in the 10th house mean?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Context)
	assert.NotEmpty(t, resp.Entities)
	assert.NotEmpty(t, resp.TraversalPaths)
	assert.NotEmpty(t, resp.ReasoningSteps)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.Equal(t, len(resp.Entities), resp.Stats.EntitiesCount)
	assert.Equal(t, len(resp.TraversalPaths), resp.Stats.PathsCount)

	// The flat payload fields are always present, even when empty.
	for _, key := range []string{"context", "entities", "traversal_paths", "graph_results", "reasoning_steps"} {
		assert.Contains(t, w.Body.String(), `"`+key+`"`)
	}
}

func TestAskTraversesWithoutFlag(t *testing.T) {
	r := askRouter(t)

	w := postAsk(r, `{"query": "Saturn in the 10th house"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraversalPaths)
}

func TestAskExplicitTraversalOptOut(t *testing.T) {
	r := askRouter(t)

	w := postAsk(r, `{"query": "Saturn in the 10th house", "use_deep_traversal": false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.TraversalPaths)
}

func TestAskRejectsMissingQuery(t *testing.T) {
	r := askRouter(t)

	w := postAsk(r, `{"locale": "ko"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}
