package fixes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/complyscan/complyscan/pkg/observability"
)

const (
	// DefaultBaseURL is the OpenAI chat-completions endpoint. Any
	// OpenAI-compatible server works via OpenAIConfig.BaseURL.
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultModel   = "gpt-4o-mini"
	requestTimeout = 30 * time.Second

	systemPrompt = "You are an accessibility remediation assistant. For each finding, reply with a JSON array of objects with keys issue_code, remediation, and replacement. remediation is one or two sentences; replacement is corrected markup when applicable, else omitted. Reply with only the JSON array."
)

// OpenAIConfig configures the chat-completions generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIGenerator produces fixes via an OpenAI-compatible
// chat-completions API, falling back to the rule table when the
// provider fails.
type OpenAIGenerator struct {
	config     OpenAIConfig
	httpClient *http.Client
	fallback   *RuleGenerator
	metrics    *observability.Metrics
	logger     *observability.Logger
}

// NewOpenAIGenerator creates the provider-backed generator. metrics and
// logger may be nil.
func NewOpenAIGenerator(config OpenAIConfig, metrics *observability.Metrics, logger *observability.Logger) *OpenAIGenerator {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	return &OpenAIGenerator{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		fallback:   NewRuleGenerator(),
		metrics:    metrics,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the provider for remediations. Provider failures of any
// kind degrade to the rule table rather than failing the request; the
// caller already paid a credit for this call.
func (g *OpenAIGenerator) Generate(ctx context.Context, issues []Issue) ([]Fix, error) {
	if len(issues) == 0 {
		return []Fix{}, nil
	}
	if g.config.APIKey == "" {
		return g.fellBack(ctx, issues, fmt.Errorf("no API key configured"))
	}

	fts, err := g.complete(ctx, issues)
	if err != nil {
		return g.fellBack(ctx, issues, err)
	}

	if g.metrics != nil {
		g.metrics.ProviderCallsTotal.WithLabelValues("openai", "ok").Inc()
	}
	return fts, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, issues []Issue) ([]Fix, error) {
	var prompt bytes.Buffer
	prompt.WriteString("Findings:\n")
	for _, issue := range issues {
		prompt.WriteString(describeIssue(issue))
		prompt.WriteByte('\n')
	}

	body, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt.String()},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, snippet)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	fts, err := parseFixes(chat.Choices[0].Message.Content, issues)
	if err != nil {
		return nil, err
	}
	return fts, nil
}

// parseFixes reads the model's JSON array and keeps only fixes that
// match a submitted issue code.
func parseFixes(content string, issues []Issue) ([]Fix, error) {
	var raw []Fix
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse fixes: %w", err)
	}

	known := make(map[string]bool, len(issues))
	for _, issue := range issues {
		known[normalizeCode(issue.Code)] = true
	}

	fts := make([]Fix, 0, len(raw))
	for _, f := range raw {
		if !known[normalizeCode(f.IssueCode)] || f.Remediation == "" {
			continue
		}
		f.Source = "openai"
		fts = append(fts, f)
	}
	if len(fts) == 0 {
		return nil, fmt.Errorf("no usable fixes in response")
	}
	return fts, nil
}

func (g *OpenAIGenerator) fellBack(ctx context.Context, issues []Issue, cause error) ([]Fix, error) {
	if g.metrics != nil {
		g.metrics.ProviderCallsTotal.WithLabelValues("openai", "error").Inc()
		g.metrics.ProviderFallbacks.Inc()
	}
	if g.logger != nil {
		g.logger.WithFields(map[string]interface{}{
			"error": cause.Error(),
		}).Warn("fix provider failed, answering from rule table")
	}
	return g.fallback.Generate(ctx, issues)
}
