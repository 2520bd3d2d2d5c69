package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient serves the same requests through the chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *log.Logger
}

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  *log.Logger
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = openai.GPT4o
	}
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: opts.Timeout,
		logger:  logger,
	}, nil
}

// generation settings understood by both APIs
type openAIGenerationConfig struct {
	Temperature     *float32 `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            *float32 `json:"topP"`
}

func (c *OpenAIClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	chatReq, err := c.toChatRequest(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// one round trip; a rate-limited or failed call fails the feature's summary
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI error: %w", err)
	}

	out := &Response{ModelVersion: resp.Model}
	for _, ch := range resp.Choices {
		out.Candidates = append(out.Candidates, Candidate{
			Content: &Content{
				Role:  RoleModel,
				Parts: []Part{{Text: stripFences(ch.Message.Content)}},
			},
			FinishReason: string(ch.FinishReason),
			Index:        ch.Index,
		})
	}
	out.UsageMetadata = &UsageMetadata{
		PromptTokenCount:     resp.Usage.PromptTokens,
		CandidatesTokenCount: resp.Usage.CompletionTokens,
		TotalTokenCount:      resp.Usage.TotalTokens,
	}

	c.logger.Info().Str("model", c.model).Int("choices", len(resp.Choices)).Msg("OpenAI response received")
	return out, nil
}

func (c *OpenAIClient) toChatRequest(req *Request) (openai.ChatCompletionRequest, error) {
	chatReq := openai.ChatCompletionRequest{Model: c.model}

	if len(req.GenerationConfig) > 0 {
		var gc openAIGenerationConfig
		if err := json.Unmarshal(req.GenerationConfig, &gc); err != nil {
			return chatReq, fmt.Errorf("invalid generation config: %w", err)
		}
		if gc.Temperature != nil {
			chatReq.Temperature = *gc.Temperature
		}
		if gc.TopP != nil {
			chatReq.TopP = *gc.TopP
		}
		chatReq.MaxTokens = gc.MaxOutputTokens
	}

	if text := req.SystemText(); text != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: text,
		})
	}

	for _, content := range req.Contents {
		parts := make([]openai.ChatMessagePart, 0, len(content.Parts))
		for _, p := range content.Parts {
			if p.InlineData != nil {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    "data:" + p.InlineData.MIMEType + ";base64," + p.InlineData.Data,
						Detail: openai.ImageURLDetailAuto,
					},
				})
				continue
			}
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
		}
		role := openai.ChatMessageRoleUser
		if content.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return chatReq, nil
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return strings.Trim(s, "`")
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "[{") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
