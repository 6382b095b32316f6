package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/edupanel/scheduling-api/pkg/config"
)

// Client wraps the Gemini generative model behind a plain prompt/response
// call. The scheduling core treats the model as an opaque reasoning service.
type Client struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini constructs a reasoning client from configuration.
func NewGemini(ctx context.Context, cfg config.ReasoningConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(cfg.Model)
	return &Client{client: client, model: model, timeout: cfg.Timeout, logger: logger}, nil
}

// Complete streams a completion for the prompt and returns the concatenated
// text parts.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	iter := c.model.GenerateContentStream(ctx, genai.Text(prompt))
	var full strings.Builder

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				full.WriteString(string(txt))
			}
		}
	}

	return full.String(), nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ExtractJSON finds the first complete JSON object or array in a raw model
// response. Models wrap payloads in markdown fences and prose despite
// instructions, so the payload is cut out before unmarshalling.
func ExtractJSON(raw string) string {
	if start := strings.Index(raw, "```json"); start != -1 {
		raw = raw[start+7:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	} else if start := strings.Index(raw, "```"); start != -1 {
		raw = raw[start+3:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	start, closer := objStart, "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(raw, closer)
	if end == -1 || end < start {
		return ""
	}

	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}

	return ""
}
