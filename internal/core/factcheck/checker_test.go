package factcheck

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credlens/credlens/internal/core/sanitize"
	"github.com/credlens/credlens/internal/llm"
)

type mockGroundedClient struct {
	resp       *llm.GroundedResponse
	err        error
	lastPrompt string
	lastOpts   llm.GenerateOptions
}

func (m *mockGroundedClient) GenerateGrounded(ctx context.Context, prompt string, opts llm.GenerateOptions) (*llm.GroundedResponse, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func rawTree(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestCheckEndToEnd(t *testing.T) {
	mock := &mockGroundedClient{
		resp: &llm.GroundedResponse{
			Text: `{"oa":"False","oc":0.9,"claims":[{"c":"Moon is made of cheese","conf":0.95,"exp":"no","src":[]}]}`,
			Raw: rawTree(t, `{
				"candidates": [{
					"groundingMetadata": {
						"groundingChunks": [{"web": {"uri": "https://nasa.gov/moon"}}],
						"webSearchQueries": ["moon composition"]
					}
				}]
			}`),
		},
	}
	checker := New(mock, Options{})

	got, err := checker.Check(context.Background(), Request{
		Text:     "The sky is green and the moon is made of cheese",
		PostDate: "2024-06-01T12:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, AssessmentFalse, got.OverallRating.Assessment)
	assert.Equal(t, 1, got.OverallRating.Rating)
	require.Len(t, got.Claims, 1)
	require.Len(t, got.Claims[0].Sources, 1)
	assert.Equal(t, "https://nasa.gov/moon", got.Claims[0].Sources[0].URL)
	assert.True(t, got.Claims[0].GroundingUsed)
	assert.Equal(t, []string{"moon composition"}, got.SearchMetadata.SearchQueries)

	// Deterministic sampling and the date context reach the provider.
	assert.Equal(t, float32(0), mock.lastOpts.Temperature)
	assert.NotZero(t, mock.lastOpts.Seed)
	assert.Contains(t, mock.lastPrompt, "2024-06-01")
}

func TestCheckSanitizesBeforePrompting(t *testing.T) {
	mock := &mockGroundedClient{
		resp: &llm.GroundedResponse{Text: `{"oa":"Mixed","oc":0.5,"claims":[]}`},
	}
	checker := New(mock, Options{Variant: VariantStrict})

	_, err := checker.Check(context.Background(), Request{
		Text: `Breaking {news}: <b>the market</b> crashed yesterday`,
	})

	require.NoError(t, err)
	assert.NotContains(t, mock.lastPrompt, "{news}")
	assert.NotContains(t, mock.lastPrompt, "<b>")
	assert.Contains(t, mock.lastPrompt, "the market crashed")
}

func TestCheckTooShort(t *testing.T) {
	checker := New(&mockGroundedClient{}, Options{})

	_, err := checker.Check(context.Background(), Request{Text: "hi"})
	assert.ErrorIs(t, err, sanitize.ErrTooShort)
}

func TestCheckProviderErrorPropagates(t *testing.T) {
	provErr := &llm.ProviderError{StatusCode: 400, Body: "bad request"}
	checker := New(&mockGroundedClient{err: provErr}, Options{})

	_, err := checker.Check(context.Background(), Request{Text: "a perfectly analyzable post"})

	require.Error(t, err)
	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 400, pe.StatusCode)
}

func TestCheckNoGrounding(t *testing.T) {
	mock := &mockGroundedClient{
		resp: &llm.GroundedResponse{
			Text: `{"oa":"Unverifiable","oc":0.3,"claims":[{"c":"something obscure"}]}`,
		},
	}
	checker := New(mock, Options{})

	got, err := checker.Check(context.Background(), Request{Text: "an obscure unverifiable statement"})

	require.NoError(t, err)
	require.Len(t, got.Claims, 1)
	assert.Empty(t, got.Claims[0].Sources)
	assert.False(t, got.Claims[0].GroundingUsed)
	assert.Equal(t, 0, got.SearchMetadata.SourcesFound)
}

func TestBuildPromptImageClaims(t *testing.T) {
	p := BuildPrompt(VariantStandard, "some post text", 1, "", "claims from an image")
	assert.Contains(t, p, "claims from an image")

	p = BuildPrompt(VariantStandard, "some post text", 0, "", "")
	assert.NotContains(t, p, "extracted from the post's images")
}

func TestBuildPromptVariants(t *testing.T) {
	for _, variant := range []PromptVariant{VariantStandard, VariantStrict, VariantConcise} {
		p := BuildPrompt(variant, "some post text", 2, "", "")
		assert.Contains(t, p, "some post text")
		assert.Contains(t, p, "2 attached image(s)")
		assert.Contains(t, p, `"oa"`)
		assert.Contains(t, p, "Unverifiable")
		assert.True(t, strings.Contains(p, "No markdown"), "variant %s keeps the output contract", variant)
	}
}

func TestParseVariant(t *testing.T) {
	assert.Equal(t, VariantStrict, ParseVariant("strict"))
	assert.Equal(t, VariantConcise, ParseVariant(" Concise "))
	assert.Equal(t, VariantStandard, ParseVariant(""))
	assert.Equal(t, VariantStandard, ParseVariant("nonsense"))
}
