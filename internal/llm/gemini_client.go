package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/phuslu/log"
	"google.golang.org/genai"
)

const geminiAPIVersion = "v1beta"

// GeminiClient calls models/{model}:generateContent on the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *log.Logger
}

type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string // empty means the public endpoint
	Timeout time.Duration
	Logger  *log.Logger
	// HTTPClient overrides the transport, used by tests.
	HTTPClient *http.Client
}

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("gemini model is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.BaseURL,
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &GeminiClient{
		client:  client,
		model:   opts.Model,
		timeout: opts.Timeout,
		logger:  logger,
	}, nil
}

func (c *GeminiClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	contents, err := toGenaiContents(req.Contents)
	if err != nil {
		return nil, err
	}
	config, err := toGenaiConfig(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generateContent failed: %w", err)
	}

	out := fromGenaiResponse(resp)
	entry := c.logger.Info().
		Str("model", c.model).
		Int("candidates", len(out.Candidates)).
		Dur("elapsed", time.Since(start))
	if out.UsageMetadata != nil {
		entry = entry.Int("total_tokens", out.UsageMetadata.TotalTokenCount)
	}
	entry.Msg("Gemini response received")

	return out, nil
}

func toGenaiContents(in []Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(in))
	for _, c := range in {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			switch {
			case p.InlineData != nil:
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("inline data is not base64: %w", err)
				}
				parts = append(parts, genai.NewPartFromBytes(data, p.InlineData.MIMEType))
			default:
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		}
		role := genai.Role(c.Role)
		if role == "" {
			role = genai.RoleUser
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out, nil
}

func toGenaiConfig(req *Request) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}
	if len(req.GenerationConfig) > 0 {
		if err := checkConfigKeys(req.GenerationConfig); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(req.GenerationConfig, config); err != nil {
			return nil, fmt.Errorf("invalid generation config: %w", err)
		}
	}
	if text := req.SystemText(); text != "" {
		config.SystemInstruction = genai.NewContentFromText(text, genai.RoleUser)
	}
	return config, nil
}

// checkConfigKeys rejects top-level keys genai.GenerateContentConfig does
// not model; json.Unmarshal would drop them silently.
func checkConfigKeys(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("invalid generation config: %w", err)
	}
	known := configKeys(reflect.TypeOf(genai.GenerateContentConfig{}))
	var unknown []string
	for k := range fields {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("invalid generation config: unknown keys %s", strings.Join(unknown, ", "))
	}
	return nil
}

func configKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	out.ModelVersion = resp.ModelVersion

	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		c := Candidate{
			FinishReason: string(cand.FinishReason),
			Index:        int(cand.Index),
		}
		if cand.Content != nil {
			c.Content = &Content{Role: cand.Content.Role}
			for _, p := range cand.Content.Parts {
				if p == nil || p.Thought {
					continue
				}
				c.Content.Parts = append(c.Content.Parts, Part{Text: p.Text})
			}
		}
		out.Candidates = append(out.Candidates, c)
	}

	if u := resp.UsageMetadata; u != nil {
		out.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     int(u.PromptTokenCount),
			CandidatesTokenCount: int(u.CandidatesTokenCount),
			TotalTokenCount:      int(u.TotalTokenCount),
			ThoughtsTokenCount:   int(u.ThoughtsTokenCount),
		}
	}
	return out
}
