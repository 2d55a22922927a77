package factcheck

import (
	"context"
	"fmt"

	"github.com/credlens/credlens/internal/core/grounding"
	"github.com/credlens/credlens/internal/core/sanitize"
	"github.com/credlens/credlens/internal/llm"
)

// Request is one fact-check invocation. ImageClaims carries claims the
// client already extracted from the post's images, as extra prompt context.
type Request struct {
	Text        string
	ImageCount  int
	PostDate    string
	ImageClaims string
}

type Options struct {
	Variant         PromptVariant
	MaxOutputTokens int
	MaxSources      int
}

// Checker runs the full pipeline for one request: sanitize, one grounded
// model call, grounding-source recovery, normalization. No retries, no
// caching; a provider failure surfaces to the caller as-is.
type Checker struct {
	llm  llm.GroundedClient
	opts Options
}

func New(client llm.GroundedClient, opts Options) *Checker {
	if opts.Variant == "" {
		opts.Variant = VariantStandard
	}
	if opts.MaxOutputTokens == 0 {
		opts.MaxOutputTokens = 1024
	}
	if opts.MaxSources == 0 {
		opts.MaxSources = grounding.DefaultMaxSources
	}
	return &Checker{llm: client, opts: opts}
}

// Check returns a well-formed Result for every input that reaches the model.
// The only errors are sanitize.ErrTooShort and provider failures
// (llm.ProviderError or transport errors).
func (c *Checker) Check(ctx context.Context, req Request) (*Result, error) {
	text, err := sanitize.Clean(req.Text)
	if err != nil {
		return nil, err
	}
	// Image claims are optional context; too-short ones are simply dropped.
	imageClaims, _ := sanitize.Clean(req.ImageClaims)

	prompt := BuildPrompt(c.opts.Variant, text, req.ImageCount, req.PostDate, imageClaims)
	resp, err := c.llm.GenerateGrounded(ctx, prompt, llm.GenerateOptions{
		Temperature:     0,
		MaxOutputTokens: c.opts.MaxOutputTokens,
		Seed:            42,
	})
	if err != nil {
		return nil, fmt.Errorf("grounded fact-check call failed: %w", err)
	}

	sources := grounding.ExtractSources(resp.Raw, c.opts.MaxSources)
	queries := grounding.ExtractQueries(resp.Raw)

	return Normalize(resp.Text, sources, queries), nil
}
