package llm

import (
	"context"
	"fmt"
)

// GenerateOptions control sampling for a single model call. The zero value
// means provider defaults; the pipeline always sets Temperature 0 and a seed
// so repeated runs over the same post stay stable.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	StopSequences   []string
	Seed            int
}

type Client interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GroundedResponse carries the model text plus the provider's raw response
// tree. Raw is deliberately untyped: the shape of grounding metadata drifts
// across provider versions, so consumers walk it structurally instead of
// trusting a schema.
type GroundedResponse struct {
	Text string
	Raw  map[string]any
}

type GroundedClient interface {
	GenerateGrounded(ctx context.Context, prompt string, opts GenerateOptions) (*GroundedResponse, error)
}

// Image is one attachment for a vision call.
type Image struct {
	MIMEType string
	Data     []byte
}

type VisionClient interface {
	GenerateVision(ctx context.Context, prompt string, images []Image) (string, error)
}

// ProviderError reports a non-2xx response from a model API. Callers map it
// to an HTTP status for the client: 400 passes through, everything else
// becomes a 500.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
