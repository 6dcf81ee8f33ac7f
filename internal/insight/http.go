package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const systemPrompt = "You are a business analyst. Summarise the Monte-Carlo simulation results of a business idea " +
	"in at most three short paragraphs: expected outcome per scenario, downside risk, break-even timing and the most influential variable. " +
	"Do not invent numbers that are not in the data."

// Config holds the connection settings of an OpenAI-compatible chat completion endpoint.
type Config struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPGenerator asks a chat completion endpoint for the narrative.
type HTTPGenerator struct {
	cfg        Config
	httpClient *http.Client
}

func NewHTTPGenerator(cfg Config) *HTTPGenerator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &HTTPGenerator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
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
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, in Input) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal insight input: %w", err)
	}
	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(data)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.cfg.APIKey))
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read insight response: %w", err)
	}
	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("Insight endpoint responded")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight endpoint returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode insight response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("insight endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("insight response has no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("insight response is empty")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
