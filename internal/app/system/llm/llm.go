// Package llm wraps the Gemini models behind a small Generator interface.
// Calls go through google.golang.org/genai, either to the Gemini API (API
// key) or to Vertex AI (application default credentials).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/auth/oauth2adapt"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOff    = "off"
)

// ErrDisabled is returned by every call when no provider is configured.
var ErrDisabled = errors.New("llm: disabled")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// File is inline document or image data sent with a prompt.
type File struct {
	MIMEType string
	Data     []byte
}

// Request is one single-turn generation.
type Request struct {
	System string
	Prompt string
	Files  []File
	// JSON asks the model for an application/json response.
	JSON bool
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config selects and configures the provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Project  string
	Location string

	// Credentials replaces application default credentials for Vertex.
	Credentials *google.Credentials

	// BaseURL and HTTPClient override the endpoint and transport (tests).
	BaseURL    string
	HTTPClient *http.Client
}

const vertexScope = "https://www.googleapis.com/auth/cloud-platform"

// New returns a Generator for cfg.Provider. "off" (or empty) yields a
// Generator that always fails with ErrDisabled.
func New(ctx context.Context, cfg Config) (Generator, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	cc := &genai.ClientConfig{
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOff:
		return Disabled{}, nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, errors.New("llm: gemini provider requires an API key")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	case ProviderVertex:
		if cfg.Project == "" {
			return nil, errors.New("llm: vertex provider requires a project")
		}
		creds := cfg.Credentials
		if creds == nil {
			var err error
			if creds, err = google.FindDefaultCredentials(ctx, vertexScope); err != nil {
				return nil, fmt.Errorf("llm: vertex credentials: %w", err)
			}
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		if cc.Location == "" {
			cc.Location = "us-central1"
		}
		cc.Credentials = oauth2adapt.AuthCredentialsFromOauth2Credentials(creds)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: client: %w", err)
	}
	return &Client{models: client.Models, model: cfg.Model}, nil
}

// Disabled is the Generator used when AI features are turned off.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) { return "", ErrDisabled }

// Client calls generateContent on one model.
type Client struct {
	models *genai.Models
	model  string
}

// Generate sends one request. There is no retry; callers bound it with a
// context deadline.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	var cfg genai.GenerateContentConfig
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{genai.NewContentFromParts(buildParts(req), genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, &cfg)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildParts(req Request) []*genai.Part {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, f := range req.Files {
		if len(f.Data) == 0 {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(f.Data, f.MIMEType))
	}
	return parts
}

// StripCodeFence removes a surrounding ```json ... ``` fence, which models
// sometimes add even when asked for bare JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
