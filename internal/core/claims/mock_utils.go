package claims

import (
	"context"

	"github.com/credlens/credlens/internal/llm"
)

type MockLLMClient struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
