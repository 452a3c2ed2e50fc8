package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemini_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sys", body.SystemInstruction.Parts[0].Text)

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates:    []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: "a"}, {Text: "b"}}}}},
			UsageMetadata: geminiUsage{TotalTokenCount: 7},
		})
	}))
	defer server.Close()

	g := &Gemini{apiKey: "test-key", model: "gemini-2.0-flash", client: redirectClient(server)}
	// A tool is ignored: Gemini replies with text only.
	reply, err := g.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "u", Tool: &Tool{Name: "submit_review"}})
	require.NoError(t, err)
	require.Len(t, reply.Blocks, 1)
	assert.Equal(t, TextBlock, reply.Blocks[0].Kind)
	assert.Equal(t, "ab", reply.Text())
	assert.Equal(t, 7, reply.TokensUsed)
}

func TestGemini_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "bad-key" {
			w.WriteHeader(403)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		json.NewEncoder(w).Encode(geminiResponse{Candidates: []geminiCandidate{}})
	}))
	defer server.Close()

	g := &Gemini{apiKey: "bad-key", model: "m", client: redirectClient(server)}
	_, err := g.Complete(context.Background(), Request{UserPrompt: "u"})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	g.apiKey = "good"
	_, err = g.Complete(context.Background(), Request{UserPrompt: "u"})
	assert.Error(t, err)
}
