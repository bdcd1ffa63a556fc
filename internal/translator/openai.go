package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/titrolabs/srt-batch-translator/pkg/log"
)

// segmentSeparator joins and splits the per-block segments of one batched
// translation request. The prompt instructs the model to echo it back
// between translations.
const segmentSeparator = "|||"

// Config holds the chat-completions backend configuration.
type Config struct {
	APIKey      string
	APIURL      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     int // seconds
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// Client talks to any OpenAI-compatible chat-completions API.
// Thread-safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	fallback   Detector
}

type Option func(*Client)

// WithFallbackDetector installs a local detector consulted when the remote
// backend returns something that is not a usable language code.
func WithFallbackDetector(d Detector) Option {
	return func(c *Client) {
		c.fallback = d
	}
}

func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid translator configuration: %w", err)
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	content, err := c.chat(ctx,
		"Detect the language of the following text and respond with only the ISO 639-1 language code:",
		text)
	if err != nil {
		return "", fmt.Errorf("language detection failed: %w", err)
	}

	code := strings.ToLower(strings.TrimSpace(content))
	if isLanguageCode(code) {
		return code, nil
	}

	if c.fallback != nil {
		log.Warn("Backend returned unusable language code %q, falling back to local detection", code)
		return c.fallback.DetectLanguage(ctx, text)
	}
	return "", fmt.Errorf("backend returned unusable language code %q", code)
}

func (c *Client) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	systemPrompt := fmt.Sprintf(
		"Translate the following texts from %s to %s. "+
			"Each text is a subtitle block. Preserve formatting, line breaks, and special characters. "+
			"Return the translations in the same order, separated by %q.",
		sourceLang, targetLang, segmentSeparator)

	content, err := c.chat(ctx, systemPrompt, strings.Join(texts, segmentSeparator))
	if err != nil {
		return nil, fmt.Errorf("batch translation failed: %w", err)
	}

	return strings.Split(content, segmentSeparator), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error (%s): %s", e.Type, e.Message)
}

// chat performs one completion call and returns the assistant's content.
func (c *Client) chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	request := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(responseBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil && chatResp.Error.Message != "" {
		return "", chatResp.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// isLanguageCode reports whether code looks like a bare ISO 639-1 code.
func isLanguageCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	_, err := language.ParseBase(code)
	return err == nil
}
