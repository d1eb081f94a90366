// Package claude implements the extraction engine port against the Anthropic
// Messages API.
package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"finsight/internal/config"
	"finsight/internal/engine"
	"finsight/internal/port"
	"finsight/internal/resilience"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Engine implements port.ExtractionEngine using the Anthropic Messages API.
type Engine struct {
	apiKey       string
	model        string
	endpoint     string
	chunkPages   int
	chunkOverlap int
	client       *http.Client
	exec         *resilience.Executor
}

// NewEngine creates a Claude-based extraction engine.
func NewEngine(cfg *config.EngineConfig) *Engine {
	return newEngine(cfg, apiURL)
}

// NewEngineWithEndpoint creates an engine pointing at a custom API endpoint (for testing).
func NewEngineWithEndpoint(cfg *config.EngineConfig, endpoint string) *Engine {
	return newEngine(cfg, endpoint)
}

func newEngine(cfg *config.EngineConfig, endpoint string) *Engine {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	chunkPages := cfg.ChunkPages
	if chunkPages <= 0 {
		chunkPages = 10
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 || chunkOverlap >= chunkPages {
		chunkOverlap = 0
	}
	return &Engine{
		apiKey:       cfg.APIKey,
		model:        model,
		endpoint:     endpoint,
		chunkPages:   chunkPages,
		chunkOverlap: chunkOverlap,
		client:       &http.Client{Timeout: timeout},
		exec: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    cfg.RetryMaxAttempts,
			RetryInitialBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
			RetryMultiplier:     2.0,
			BreakerEnabled:      cfg.BreakerEnabled,
			BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
			BreakerFailureRatio: cfg.BreakerFailureRatio,
			BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenSecs) * time.Second,
		}),
	}
}

// PlanChunks splits a PDF into overlapping page windows. Non-PDF documents
// and PDFs whose page tree cannot be read become a single whole-document
// chunk.
func (e *Engine) PlanChunks(_ context.Context, fileBytes []byte, contentType string) ([]port.Chunk, error) {
	if contentType != "application/pdf" {
		return []port.Chunk{{Index: 0}}, nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		log.Printf("claude.PlanChunks: unreadable pdf page tree, using single chunk: %v", err)
		return []port.Chunk{{Index: 0}}, nil
	}

	pages := reader.NumPage()
	if pages <= e.chunkPages {
		return []port.Chunk{{Index: 0, StartPage: 1, EndPage: pages}}, nil
	}

	var chunks []port.Chunk
	step := e.chunkPages - e.chunkOverlap
	for start := 1; start <= pages; start += step {
		end := start + e.chunkPages - 1
		if end > pages {
			end = pages
		}
		chunks = append(chunks, port.Chunk{Index: len(chunks), StartPage: start, EndPage: end})
		if end == pages {
			break
		}
	}
	return chunks, nil
}

func (e *Engine) ExtractChunk(ctx context.Context, fileBytes []byte, contentType string, chunk port.Chunk) ([]port.ChunkStatement, error) {
	prompt := engine.BuildStatementPrompt(chunk.StartPage, chunk.EndPage)

	contentBlocks, err := buildContentBlocks(fileBytes, contentType, prompt)
	if err != nil {
		return nil, fmt.Errorf("building content blocks: %w", err)
	}

	var statements []port.ChunkStatement
	err = e.exec.Execute(ctx, "extract_chunk", func(ctx context.Context) error {
		statements, err = e.call(ctx, contentBlocks)
		return err
	}, classifyEngineError)
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func (e *Engine) call(ctx context.Context, contentBlocks []map[string]interface{}) ([]port.ChunkStatement, error) {
	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := &apiError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 500)}
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := engine.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, engine.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody)
}

func buildContentBlocks(fileBytes []byte, contentType, prompt string) ([]map[string]interface{}, error) {
	encoded := base64.StdEncoding.EncodeToString(fileBytes)
	var blocks []map[string]interface{}

	switch contentType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		blocks = append(blocks, map[string]interface{}{
			"type": "document",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": contentType,
				"data":       encoded,
			},
		})
	case "image/jpeg", "image/png":
		blocks = append(blocks, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": contentType,
				"data":       encoded,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	return blocks, nil
}

// apiError carries the upstream status for retry classification.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("anthropic API error (status %d): %s", e.StatusCode, e.Body)
}

func classifyEngineError(err error) resilience.ErrorClassification {
	var rateLimited *engine.RateLimitError
	if errors.As(err, &rateLimited) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: false}
	}
	var api *apiError
	if errors.As(err, &api) {
		return resilience.ErrorClassification{
			Retryable:     api.StatusCode >= 500,
			RecordFailure: true,
		}
	}
	// Transport errors (timeouts, resets) are worth one more try.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) ([]port.ChunkStatement, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	text := stripCodeFences(resp.Content[0].Text)

	var statements []port.ChunkStatement
	if err := json.Unmarshal([]byte(text), &statements); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 500))
	}
	return statements, nil
}

// stripCodeFences removes a leading ```json / trailing ``` fence the model
// sometimes adds despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
