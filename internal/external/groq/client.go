package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/config"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// Client handles communication with the Groq chat-completion API
// ⭐ SSOT: Groq API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a new Groq client from config
func NewClient(cfg config.GroqConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Enabled reports whether the client has an API key
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ResolveName asks the chat model for the display name of an instrument symbol.
// 답은 이름 한 단어/구만 오도록 프롬프트로 강제하고, 남는 구두점은 벗겨냄
func (c *Client) ResolveName(ctx context.Context, symbol string) (string, error) {
	if !c.Enabled() {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("no API key configured")}
	}

	prompt := fmt.Sprintf(
		"What is the full name of the cryptocurrency with the symbol %s? "+
			"Please respond with just the name, nothing else. "+
			"For example, if asked about BTC, just respond with \"Bitcoin\".",
		symbol,
	)

	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   10,
	}

	resp, err := c.httpClient.PostJSONWithHeaders(ctx, c.baseURL+"/chat/completions", req, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", &contracts.CollaboratorError{Service: "groq", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.Error != nil {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("API error: %s - %s", result.Error.Type, result.Error.Message)}
	}
	if len(result.Choices) == 0 {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("empty completion")}
	}

	name := cleanAnswer(result.Choices[0].Message.Content)
	if name == "" {
		return "", &contracts.CollaboratorError{Service: "groq", Err: fmt.Errorf("blank completion")}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"name":   name,
	}).Debug("Resolved symbol name")
	return name, nil
}

// cleanAnswer strips quotes and trailing punctuation from a short completion.
// 여러 줄이 오면 첫 줄만 취함
func cleanAnswer(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), "\"'.,!? ")
}
