package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/platewise/platewise-backend/internal/apperr"
)

func geminiReply(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
		Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}},
	}}}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Errorf("encode reply: %v", err)
	}
}

func TestGeminiClientAnalyze_SendsImageAndParsesReply(t *testing.T) {
	var got geminiGenerateContentRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		geminiReply(t, w, "```json\n{\"name\":\"Chicken Salad\",\"calories\":420,\"protein_g\":\"35.5\",\"carbs_g\":12,"+
			"\"fats_g\":-3,\"fiber_g\":6,\"sugar_g\":4,\"sodium_mg\":610,\"confidence\":1.4,\"ingredients\":[\"chicken\",\" \",\"lettuce\"]}\n```")
	}))
	defer srv.Close()

	client, err := NewGeminiClient(Options{APIKey: "secret", BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	estimate, err := client.Analyze(context.Background(), AnalyzeRequest{
		Image:      []byte{0xff, 0xd8, 0xff},
		MIMEType:   "image/png",
		Language:   "de",
		Correction: "no croutons",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if gotPath != "/models/test-model:generateContent" || gotKey != "secret" {
		t.Fatalf("unexpected endpoint %s key=%q", gotPath, gotKey)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request contents %+v", got.Contents)
	}
	prompt := got.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, `"de"`) || !strings.Contains(prompt, "no croutons") {
		t.Fatalf("prompt missing language or correction: %q", prompt)
	}
	inline := got.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MimeType != "image/png" || inline.Data != base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}) {
		t.Fatalf("unexpected inline image %+v", inline)
	}

	if estimate.Name != "Chicken Salad" || estimate.Calories != 420 || estimate.ProteinG != 35.5 {
		t.Fatalf("unexpected estimate %+v", estimate)
	}
	if estimate.FatsG != 0 {
		t.Fatalf("expected negative fats clamped to 0, got %v", estimate.FatsG)
	}
	if estimate.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", estimate.Confidence)
	}
	if len(estimate.Ingredients) != 2 {
		t.Fatalf("expected blank ingredient dropped, got %v", estimate.Ingredients)
	}
}

func TestGeminiClientRevise_IncludesPreviousEstimate(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prompt = req.Contents[0].Parts[0].Text
		geminiReply(t, w, `{"name":"Tofu Bowl","calories":380,"confidence":0.7}`)
	}))
	defer srv.Close()

	client, err := NewGeminiClient(Options{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	estimate, err := client.Revise(context.Background(), ReviseRequest{
		Previous:   Estimate{Name: "Chicken Bowl", Calories: 450},
		Correction: "it was tofu",
	})
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if !strings.Contains(prompt, "Chicken Bowl") || !strings.Contains(prompt, "it was tofu") || !strings.Contains(prompt, `"en"`) {
		t.Fatalf("unexpected revise prompt %q", prompt)
	}
	if estimate.Name != "Tofu Bowl" || estimate.Calories != 380 || estimate.Ingredients == nil {
		t.Fatalf("unexpected estimate %+v", estimate)
	}
}

func TestGeminiClient_UpstreamErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"resource exhausted"}}`))
		}},
		{"not json", func(w http.ResponseWriter, _ *http.Request) {
			geminiReply(t, w, "I think this is a sandwich.")
		}},
		{"no candidates", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}},
		{"missing name", func(w http.ResponseWriter, _ *http.Request) {
			geminiReply(t, w, `{"calories":100}`)
		}},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(tc.handler)
		client, err := NewGeminiClient(Options{APIKey: "k", BaseURL: srv.URL})
		if err != nil {
			srv.Close()
			t.Fatalf("%s: NewGeminiClient: %v", tc.name, err)
		}
		_, errAnalyze := client.Analyze(context.Background(), AnalyzeRequest{Image: []byte("img")})
		srv.Close()
		if !errors.Is(errAnalyze, apperr.ErrUpstream) {
			t.Fatalf("%s: expected upstream error, got %v", tc.name, errAnalyze)
		}
	}
}

func TestGeminiClient_RejectsMissingInput(t *testing.T) {
	if _, err := NewGeminiClient(Options{}); err == nil {
		t.Fatalf("expected error without api key")
	}
	client, err := NewGeminiClient(Options{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	if _, errAnalyze := client.Analyze(context.Background(), AnalyzeRequest{}); !errors.Is(errAnalyze, apperr.ErrInvalid) {
		t.Fatalf("expected invalid input for empty image, got %v", errAnalyze)
	}
	if _, errRevise := client.Revise(context.Background(), ReviseRequest{}); !errors.Is(errRevise, apperr.ErrInvalid) {
		t.Fatalf("expected invalid input for empty correction, got %v", errRevise)
	}
	if client.Model() != defaultGeminiModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
}

func TestCleanModelJSON(t *testing.T) {
	got := cleanModelJSON("Sure! ```json\n{\"name\":\"x\"}\n``` enjoy")
	if got != `{"name":"x"}` {
		t.Fatalf("unexpected cleaned text %q", got)
	}
}
