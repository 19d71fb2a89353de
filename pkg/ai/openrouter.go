package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "qwen/qwen3-vl-8b-instruct"
	openRouterMaxTokens      = 1024
)

// OpenRouterClient calls an OpenAI-compatible chat completions endpoint with
// vision support. Photos travel as data-URI image parts.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
	httpClient *http.Client
}

// NewOpenRouterClient constructs a vision-capable generator. Empty model
// falls back to the default; referer and title are the attribution headers
// OpenRouter asks clients to send.
func NewOpenRouterClient(apiKey, model, referer, title string) (*OpenRouterClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &OpenRouterClient{
		baseURL:    defaultOpenRouterBaseURL,
		apiKey:     apiKey,
		model:      model,
		referer:    strings.TrimSpace(referer),
		title:      strings.TrimSpace(title),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// GenerateReply implements ReplyGenerator via chat completions.
func (c *OpenRouterClient) GenerateReply(ctx context.Context, prompt string, photo *Photo) (string, error) {
	messages := []orMessage{{Role: "user", Content: prompt}}
	if photo != nil && len(photo.Data) > 0 {
		imageURI := fmt.Sprintf("data:%s;base64,%s", photoMimeType(photo), base64.StdEncoding.EncodeToString(photo.Data))
		messages = append(messages, orMessage{
			Role: "user",
			Content: []orContentPart{
				{Type: "input_text", Text: "Berikut foto dari user:"},
				{Type: "input_image", ImageURL: imageURI},
			},
		})
	}
	reqBody := orChatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: openRouterMaxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp orErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("openrouter api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("openrouter api error: %s", resp.Status)
	}
	var chatResp orChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("openrouter decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrNoAnswer
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrNoAnswer
	}
	return text, nil
}

// OpenAI-compatible request/response types. Content is string or a part list.

type orMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type orContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type orChatRequest struct {
	Model     string      `json:"model"`
	Messages  []orMessage `json:"messages"`
	MaxTokens int         `json:"max_tokens"`
}

type orChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type orErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
