package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoCandidates = errors.New("no candidates in response")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Blob is inline binary data, base64 encoded.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is either text or inline data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Request is a single-turn generateContent request. GenerationConfig is
// passed through to the service untouched.
type Request struct {
	SystemInstruction *Content        `json:"systemInstruction,omitempty"`
	Contents          []Content       `json:"contents"`
	GenerationConfig  json.RawMessage `json:"generationConfig,omitempty"`
}

func NewRequest() *Request {
	return &Request{Contents: []Content{{Role: RoleUser, Parts: []Part{}}}}
}

// AddSystemText appends a text part to the system instruction.
func (r *Request) AddSystemText(text string) *Request {
	if r.SystemInstruction == nil {
		r.SystemInstruction = &Content{}
	}
	r.SystemInstruction.Parts = append(r.SystemInstruction.Parts, Part{Text: text})
	return r
}

// AddText appends a text part to the user turn.
func (r *Request) AddText(text string) *Request {
	r.user().Parts = append(r.user().Parts, Part{Text: text})
	return r
}

// AddInlineData appends a base64 blob to the user turn.
func (r *Request) AddInlineData(mimeType, b64 string) *Request {
	r.user().Parts = append(r.user().Parts, Part{InlineData: &Blob{MIMEType: mimeType, Data: b64}})
	return r
}

func (r *Request) user() *Content {
	if len(r.Contents) == 0 {
		r.Contents = append(r.Contents, Content{Role: RoleUser})
	}
	return &r.Contents[len(r.Contents)-1]
}

// Parts returns the user turn parts in order.
func (r *Request) Parts() []Part {
	if len(r.Contents) == 0 {
		return nil
	}
	return r.user().Parts
}

func (r *Request) SystemText() string {
	if r.SystemInstruction == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.SystemInstruction.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}

type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// FirstText returns the text of the first part of the first candidate.
func (r *Response) FirstText() (string, error) {
	if r == nil || len(r.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return "", ErrNoCandidates
	}
	return c.Parts[0].Text, nil
}

// Provider sends a request to a generative model.
type Provider interface {
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}
