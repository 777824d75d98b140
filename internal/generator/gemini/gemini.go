// Package gemini generates chapters with the Gemini generateContent API.
//
// Requests ask for JSON output constrained by a response schema that mirrors
// story.StructuredChapter. The returned text is still validated against the
// chapter schema before it is decoded: the API treats the response schema as
// guidance, not a guarantee.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel           = "gemini-2.5-pro"
	DefaultMaxOutputTokens = 35500
)

// ErrNoCandidates is returned when the API answers without any candidate.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// Config holds the client settings.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Temperature     float64
}

// Client calls the generateContent endpoint. It implements
// workflow.Generator.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

var _ workflow.Generator = (*Client)(nil)

// New creates a Client. An API key is required.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	c := &Client{cfg: cfg, http: http.DefaultClient, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	Temperature      float64 `json:"temperature"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Endpoint returns the generateContent URL for the configured model.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
}

// Generate sends prompt and decodes the returned chapter.
func (c *Client) Generate(ctx context.Context, prompt string) (workflow.Generation, error) {
	body, err := json.Marshal(request{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   chapterSchema(),
			MaxOutputTokens:  c.cfg.MaxOutputTokens,
			Temperature:      c.cfg.Temperature,
		},
	})
	if err != nil {
		return workflow.Generation{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return workflow.Generation{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return workflow.Generation{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return workflow.Generation{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return workflow.Generation{}, fmt.Errorf("gemini API error (%d %s): %s",
				resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return workflow.Generation{}, fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return workflow.Generation{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return workflow.Generation{}, ErrNoCandidates
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	raw := text.String()

	c.logger.Debug().
		Str("model", c.cfg.Model).
		Str("finish_reason", out.Candidates[0].FinishReason).
		Int("prompt_tokens", out.UsageMetadata.PromptTokenCount).
		Int("output_tokens", out.UsageMetadata.CandidatesTokenCount).
		Msg("gemini response")

	chapter, err := story.DecodeChapter([]byte(raw))
	if err != nil {
		return workflow.Generation{}, fmt.Errorf("%w (finish reason %s): %w", workflow.ErrInvalidOutput, out.Candidates[0].FinishReason, err)
	}

	return workflow.Generation{Chapter: chapter, Raw: raw}, nil
}
