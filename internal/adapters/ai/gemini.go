// Package ai calls Gemini for marketing copy and image descriptions.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// ImageDescription is what the vision model reports about an image.
type ImageDescription struct {
	AltText     string
	Title       string
	Description string
	Keywords    []string
}

// Writer generates text from a prompt.
type Writer interface {
	Write(ctx context.Context, system, prompt string) (string, error)
}

// Describer describes image bytes.
type Describer interface {
	Describe(ctx context.Context, data []byte, mimeType string) (ImageDescription, error)
}

// Options configures a Gemini client. BaseURL and HTTPClient are for tests.
type Options struct {
	APIKey      string
	TextModel   string
	VisionModel string
	BaseURL     string
	HTTPClient  *http.Client
}

// Gemini implements Writer and Describer.
type Gemini struct {
	client      *genai.Client
	textModel   string
	visionModel string
}

// NewGemini creates a client for the Gemini API.
// PRE: o.APIKey is non-empty
func NewGemini(ctx context.Context, o Options) (*Gemini, error) {
	if o.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     o.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.HTTPClient,
	}
	if o.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, textModel: o.TextModel, visionModel: o.VisionModel}, nil
}

// Write asks the text model for copy.
// POST: Returns trimmed, non-empty text
func (g *Gemini) Write(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.8)}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate copy: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

const describePrompt = `이 이미지를 골프 전문점 블로그용으로 설명하세요.
JSON으로만 답하세요: {"alt_text": "...", "title": "...", "description": "...", "keywords": ["..."]}
alt_text는 125자 이내, keywords는 최대 10개.`

// Describe asks the vision model for alt text, title and keywords.
func (g *Gemini) Describe(ctx context.Context, data []byte, mimeType string) (ImageDescription, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(describePrompt),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.visionModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return ImageDescription{}, fmt.Errorf("describe image: %w", err)
	}
	d, err := ParseDescription(resp.Text())
	if err != nil {
		slog.Warn("ai_describe_unparseable", "error", err)
	}
	return d, err
}

// ParseDescription reads the JSON answer, tolerating ```json fences.
func ParseDescription(raw string) (ImageDescription, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ImageDescription{}, ErrEmptyResponse
	}
	if !gjson.Valid(raw) {
		return ImageDescription{}, fmt.Errorf("description is not JSON: %.80s", raw)
	}
	r := gjson.Parse(raw)
	d := ImageDescription{
		AltText:     r.Get("alt_text").String(),
		Title:       r.Get("title").String(),
		Description: r.Get("description").String(),
	}
	for _, k := range r.Get("keywords").Array() {
		if s := strings.TrimSpace(k.String()); s != "" {
			d.Keywords = append(d.Keywords, s)
		}
	}
	return d, nil
}
