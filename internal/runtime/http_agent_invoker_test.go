package runtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"context"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAgentInvokerPostsFlowAndParsesResponse(t *testing.T) {
	t.Parallel()

	var gotReq runFlowRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flows/run", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := runFlowResponse{Text: "a summary"}
		resp.Tokens.In, resp.Tokens.Out, resp.Tokens.Total = 2, 3, 5
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	invoker := NewHTTPAgentInvoker(srv.URL, "secret")
	text, tokens, stats, err := invoker.RunFlow(context.Background(), "summarize", map[string]model.Value{
		"text": model.NewString("hello"),
	}, "agent-1", "gpt-x")

	require.NoError(t, err)
	assert.Equal(t, "a summary", text)
	assert.Equal(t, 5, tokens.Total)
	assert.Nil(t, stats)
	assert.Equal(t, "agent-1", gotReq.AgentID)
	assert.Equal(t, "summarize", gotReq.Flow)
	assert.Equal(t, "gpt-x", gotReq.ModelOverride)
	assert.Equal(t, "hello", gotReq.Variables["text"])
}

func TestHTTPAgentInvokerSurfacesAgentError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(runFlowResponse{Error: "rate limited"})
	}))
	defer srv.Close()

	invoker := NewHTTPAgentInvoker(srv.URL, "")
	_, _, _, err := invoker.RunFlow(context.Background(), "flow", nil, "agent-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestHTTPAgentInvokerSurfacesHTTPStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	invoker := NewHTTPAgentInvoker(srv.URL, "")
	_, _, _, err := invoker.RunFlow(context.Background(), "flow", nil, "agent-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
