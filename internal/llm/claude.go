package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client *anthropic.Client
	model  string
}

func NewClaudeClient(apiKey string, model string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(apiKey, opts...)

	return &ClaudeClient{
		client: client,
		model:  model,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:     maxTokens,
		StopSequences: opts.StopSequences,
	}
	temp := opts.Temperature
	req.Temperature = &temp

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("no response content")
}

// GenerateGrounded degrades to plain generation; the Anthropic client here
// carries no web-search tool, so no grounding tree is produced.
func (c *ClaudeClient) GenerateGrounded(ctx context.Context, prompt string, opts GenerateOptions) (*GroundedResponse, error) {
	text, err := c.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return &GroundedResponse{Text: text}, nil
}

func (c *ClaudeClient) GenerateVision(ctx context.Context, prompt string, images []Image) (string, error) {
	return "", fmt.Errorf("vision not supported by Claude client")
}
