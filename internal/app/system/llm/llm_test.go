package llm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nestoreco/nestor/internal/app/system/llm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func staticCreds() *google.Credentials {
	return &google.Credentials{
		ProjectID:   "nestor-test",
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	}
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     llm.Config
		wantErr bool
	}{
		{"off", llm.Config{Provider: "off"}, false},
		{"empty", llm.Config{}, false},
		{"gemini without key", llm.Config{Provider: "gemini"}, true},
		{"gemini", llm.Config{Provider: "gemini", APIKey: "k"}, false},
		{"vertex without project", llm.Config{Provider: "vertex", Credentials: staticCreds()}, true},
		{"vertex", llm.Config{Provider: "vertex", Project: "p", Credentials: staticCreds(), HTTPClient: http.DefaultClient}, false},
		{"unknown", llm.Config{Provider: "openai"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := llm.New(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	g, _ := llm.New(context.Background(), llm.Config{Provider: "off"})
	if _, err := g.Generate(context.Background(), llm.Request{Prompt: "hi"}); !errors.Is(err, llm.ErrDisabled) {
		t.Errorf("err = %v", err)
	}
}

func TestGemini_Generate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	g, err := llm.New(context.Background(), llm.Config{Provider: "gemini", APIKey: "secret", Model: "test-model", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := g.Generate(context.Background(), llm.Request{
		System: "be brief",
		Prompt: "greet",
		JSON:   true,
		Files:  []llm.File{{MIMEType: "application/pdf", Data: []byte("%PDF")}},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Hello there" {
		t.Errorf("out = %q", out)
	}

	for _, want := range []string{`"greet"`, `"be brief"`, `"JVBERg=="`, `"application/pdf"`, `"application/json"`} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %s: %s", want, body)
		}
	}
}

func TestVertex_Endpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	g, err := llm.New(context.Background(), llm.Config{
		Provider:    "vertex",
		Project:     "nestor-prod",
		Location:    "europe-west8",
		Model:       "m",
		Credentials: staticCreds(),
		BaseURL:     srv.URL + "/",
		HTTPClient:  srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := g.Generate(context.Background(), llm.Request{Prompt: "x"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(path, "/projects/nestor-prod/locations/europe-west8/publishers/google/models/m:generateContent") {
		t.Errorf("path = %s", path)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"api error", http.StatusBadRequest, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`, nil},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, llm.ErrEmptyResponse},
		{"blank text", http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]}}]}`, llm.ErrEmptyResponse},
		{"server error", http.StatusBadGateway, `{"error":{"code":502,"message":"upstream","status":"UNAVAILABLE"}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			g, err := llm.New(context.Background(), llm.Config{Provider: "gemini", APIKey: "k", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = g.Generate(context.Background(), llm.Request{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"[1,2]":                   "[1,2]",
		"```json\n[1,2]\n```":     "[1,2]",
		"```\n{\"a\":1}\n```  \n": `{"a":1}`,
	}
	for in, want := range tests {
		if got := llm.StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
