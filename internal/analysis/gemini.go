package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/platewise/platewise-backend/internal/apperr"

	log "github.com/sirupsen/logrus"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiTimeout = 30 * time.Second
	defaultImageMIMEType = "image/jpeg"
)

// Options configures a GeminiClient.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration // Used only when HTTPClient is nil.
}

// GeminiClient implements Gateway against the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Gateway = (*GeminiClient)(nil)

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// estimateReply mirrors Estimate but tolerates numbers sent as strings.
type estimateReply struct {
	Name        string   `json:"name"`
	Calories    number   `json:"calories"`
	ProteinG    number   `json:"protein_g"`
	CarbsG      number   `json:"carbs_g"`
	FatsG       number   `json:"fats_g"`
	FiberG      number   `json:"fiber_g"`
	SugarG      number   `json:"sugar_g"`
	SodiumMg    number   `json:"sodium_mg"`
	Confidence  number   `json:"confidence"`
	Ingredients []string `json:"ingredients"`
}

// number decodes a JSON number or numeric string; anything else becomes 0.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = number(v)
	return nil
}

// NewGeminiClient constructs a GeminiClient. An API key is required.
func NewGeminiClient(opts Options) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("analysis: gemini api key is required")
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultGeminiTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{apiKey: apiKey, baseURL: baseURL, model: model, httpClient: client}, nil
}

// Model reports the configured model name.
func (c *GeminiClient) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Analyze estimates the meal in the request image.
func (c *GeminiClient) Analyze(ctx context.Context, req AnalyzeRequest) (Estimate, error) {
	if len(req.Image) == 0 {
		return Estimate{}, apperr.Invalid("image is required")
	}
	mimeType := strings.TrimSpace(req.MIMEType)
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	parts := []geminiPart{
		{Text: buildAnalyzePrompt(req)},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(req.Image)}},
	}
	return c.generate(ctx, "analyze", parts)
}

// Revise applies a correction to a previous estimate.
func (c *GeminiClient) Revise(ctx context.Context, req ReviseRequest) (Estimate, error) {
	if strings.TrimSpace(req.Correction) == "" {
		return Estimate{}, apperr.Invalid("correction is required")
	}
	prompt, errPrompt := buildRevisePrompt(req)
	if errPrompt != nil {
		return Estimate{}, apperr.Upstream("failed to revise meal", errPrompt)
	}
	return c.generate(ctx, "revise", []geminiPart{{Text: prompt}})
}

func (c *GeminiClient) generate(ctx context.Context, op string, parts []geminiPart) (Estimate, error) {
	if c == nil || c.httpClient == nil {
		return Estimate{}, apperr.Upstream("meal analysis is not configured", nil)
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if errInvoke := c.invokeGemini(ctx, path, payload, &response); errInvoke != nil {
		log.WithError(errInvoke).WithFields(log.Fields{"op": op, "model": c.model}).Error("analysis: gemini call failed")
		return Estimate{}, apperr.Upstream("failed to analyze meal", errInvoke)
	}

	estimate, errParse := parseEstimate(response)
	if errParse != nil {
		log.WithError(errParse).WithFields(log.Fields{"op": op, "model": c.model}).Error("analysis: malformed gemini reply")
		return Estimate{}, apperr.Upstream("failed to analyze meal", errParse)
	}
	log.WithFields(log.Fields{"op": op, "model": c.model, "confidence": estimate.Confidence}).Debug("analysis: estimate ready")
	return estimate, nil
}

func (c *GeminiClient) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return fmt.Errorf("marshal request: %w", errMarshal)
	}
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if errRequest != nil {
		return fmt.Errorf("create request: %w", errRequest)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("invoke gemini: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Debug("analysis: close gemini response body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		if errDecode := json.Unmarshal(data, &apiErr); errDecode == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if errDecode := json.NewDecoder(resp.Body).Decode(out); errDecode != nil {
		return fmt.Errorf("decode gemini response: %w", errDecode)
	}
	return nil
}

func parseEstimate(response geminiGenerateContentResponse) (Estimate, error) {
	var text strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return Estimate{}, errors.New("empty gemini reply")
	}

	var reply estimateReply
	if errUnmarshal := json.Unmarshal([]byte(cleanModelJSON(text.String())), &reply); errUnmarshal != nil {
		return Estimate{}, fmt.Errorf("decode estimate: %w", errUnmarshal)
	}
	estimate := Estimate{
		Name:        reply.Name,
		Calories:    float64(reply.Calories),
		ProteinG:    float64(reply.ProteinG),
		CarbsG:      float64(reply.CarbsG),
		FatsG:       float64(reply.FatsG),
		FiberG:      float64(reply.FiberG),
		SugarG:      float64(reply.SugarG),
		SodiumMg:    float64(reply.SodiumMg),
		Confidence:  float64(reply.Confidence),
		Ingredients: reply.Ingredients,
	}.Normalize()
	if estimate.Name == "" {
		return Estimate{}, errors.New("estimate has no meal name")
	}
	return estimate, nil
}
