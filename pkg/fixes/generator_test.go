package fixes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleGeneratorKnownCodes(t *testing.T) {
	g := NewRuleGenerator()

	fts, err := g.Generate(context.Background(), []Issue{
		{Code: "img-missing-alt", Selector: "img.hero"},
		{Code: "low-contrast"},
	})
	require.NoError(t, err)
	require.Len(t, fts, 2)

	assert.Equal(t, "img-missing-alt", fts[0].IssueCode)
	assert.Contains(t, fts[0].Remediation, "alt attribute")
	assert.Equal(t, "rules", fts[0].Source)
	assert.Contains(t, fts[1].Remediation, "contrast ratio")
}

func TestRuleGeneratorUnknownCode(t *testing.T) {
	g := NewRuleGenerator()

	fts, err := g.Generate(context.Background(), []Issue{{Code: "brand-new-check"}})
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, genericRemediation, fts[0].Remediation)
}

func TestRuleGeneratorNormalizesCodes(t *testing.T) {
	g := NewRuleGenerator()

	fts, err := g.Generate(context.Background(), []Issue{{Code: "  IMG-MISSING-ALT "}})
	require.NoError(t, err)
	assert.Contains(t, fts[0].Remediation, "alt attribute")
}

func openAIServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
}

func respondWith(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestOpenAIGeneratorHappyPath(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, req chatRequest) {
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "img-missing-alt")
		respondWith(w, `[{"issue_code":"img-missing-alt","remediation":"Describe the hero image.","replacement":"<img src=\"hero.png\" alt=\"Team photo\">"}]`)
	})
	defer server.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL}, nil, nil)

	fts, err := g.Generate(context.Background(), []Issue{{Code: "img-missing-alt", Selector: "img.hero"}})
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, "openai", fts[0].Source)
	assert.Equal(t, "Describe the hero image.", fts[0].Remediation)
	assert.Contains(t, fts[0].Replacement, "alt=")
}

func TestOpenAIGeneratorFallsBackOnServerError(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, _ chatRequest) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	defer server.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL}, nil, nil)

	fts, err := g.Generate(context.Background(), []Issue{{Code: "low-contrast"}})
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, "rules", fts[0].Source)
}

func TestOpenAIGeneratorFallsBackOnGarbage(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, _ chatRequest) {
		respondWith(w, "Sure! Here are your fixes:")
	})
	defer server.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL}, nil, nil)

	fts, err := g.Generate(context.Background(), []Issue{{Code: "missing-label"}})
	require.NoError(t, err)
	assert.Equal(t, "rules", fts[0].Source)
}

func TestOpenAIGeneratorFallsBackWithoutKey(t *testing.T) {
	g := NewOpenAIGenerator(OpenAIConfig{}, nil, nil)

	fts, err := g.Generate(context.Background(), []Issue{{Code: "empty-link"}})
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, "rules", fts[0].Source)
}

func TestOpenAIGeneratorDropsHallucinatedCodes(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, _ chatRequest) {
		respondWith(w, `[{"issue_code":"made-up","remediation":"x"},{"issue_code":"duplicate-id","remediation":"Use unique ids."}]`)
	})
	defer server.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL}, nil, nil)

	fts, err := g.Generate(context.Background(), []Issue{{Code: "duplicate-id"}})
	require.NoError(t, err)
	require.Len(t, fts, 1)
	assert.Equal(t, "duplicate-id", fts[0].IssueCode)
}

func TestOpenAIGeneratorEmptyIssues(t *testing.T) {
	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key"}, nil, nil)

	fts, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, fts)
}
