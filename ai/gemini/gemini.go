package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zlnvch/daybook/ai"
)

const (
	defaultModel    = "gemini-2.5-flash-lite"
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	maxOutputTokens = 500

	// Generative endpoints meter requests per project; stay well under
	// the quota so a burst of feedback requests degrades to queueing
	// instead of 429s.
	requestsPerSecond = 2
	burstLimit        = 4
)

type GeminiGenerator struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	endpoint   string
	model      string
}

func NewGeminiGenerator(apiKey string, model string) *GeminiGenerator {
	if model == "" {
		model = defaultModel
	}
	return &GeminiGenerator{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstLimit),
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		model:      model,
	}
}

func (g *GeminiGenerator) ModelVersion() string {
	return g.model
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, instructions string, input string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: input}}},
		},
		GenerationConfig: generationConfig{MaxOutputTokens: maxOutputTokens},
	}
	if instructions != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: instructions}}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate content failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 {
		return "", ai.ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}
