package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

type GeminiClient struct {
	client   *genai.Client
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	endpoint := baseURL
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	return &GeminiClient{
		client:   client,
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxOutputTokens))
	}
	if len(opts.StopSequences) > 0 {
		model.StopSequences = opts.StopSequences
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func (c *GeminiClient) GenerateVision(ctx context.Context, prompt string, images []Image) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		format := strings.TrimPrefix(img.MIMEType, "image/")
		parts = append(parts, genai.ImageData(format, img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("no response candidates or content")
}

// GenerateGrounded issues a generateContent call with the web-search tool
// enabled, over the REST API rather than the SDK. The SDK types the response,
// but grounding metadata is not contractually stable across API versions, so
// the body is decoded into a generic tree and handed to the caller untouched.
func (c *GeminiClient) GenerateGrounded(ctx context.Context, prompt string, opts GenerateOptions) (*GroundedResponse, error) {
	genCfg := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxOutputTokens > 0 {
		genCfg["maxOutputTokens"] = opts.MaxOutputTokens
	}
	if len(opts.StopSequences) > 0 {
		genCfg["stopSequences"] = opts.StopSequences
	}
	if opts.Seed != 0 {
		genCfg["seed"] = opts.Seed
	}

	payload := map[string]any{
		"contents": []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
		"tools":            []any{map[string]any{"google_search": map[string]any{}}},
		"generationConfig": genCfg,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grounded generate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var raw map[string]any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &GroundedResponse{Text: rawCandidateText(raw), Raw: raw}, nil
}

// rawCandidateText pulls the concatenated text parts of the first candidate
// out of an untyped generateContent response. Missing or oddly shaped nodes
// yield an empty string; the normalizer treats that as a parse failure.
func rawCandidateText(raw map[string]any) string {
	candidates, _ := raw["candidates"].([]any)
	if len(candidates) == 0 {
		return ""
	}
	cand, _ := candidates[0].(map[string]any)
	content, _ := cand["content"].(map[string]any)
	parts, _ := content["parts"].([]any)

	var sb strings.Builder
	for _, p := range parts {
		part, _ := p.(map[string]any)
		if txt, ok := part["text"].(string); ok {
			sb.WriteString(txt)
		}
	}
	return sb.String()
}
