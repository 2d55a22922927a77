// Package vision extracts literal text from post images via a vision-capable
// model call, with an optional bullet-point claims pass over the result.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/credlens/credlens/internal/llm"
)

// MaxImages caps one extraction batch.
const MaxImages = 5

const maxClaimsInputLen = 4000

// noTextSentinel is what the transcription prompt tells the model to emit
// for images without any text.
const noTextSentinel = "NO_TEXT_FOUND"

var (
	ErrNoImages      = errors.New("no images supplied")
	ErrTooManyImages = fmt.Errorf("at most %d images per request", MaxImages)
	ErrBadImage      = errors.New("invalid image data")
)

const transcribePrompt = `Extract ALL text visible in these images, exactly as written.
Do not describe the images, do not comment, do not summarize.
If there is no readable text at all, respond with exactly: ` + noTextSentinel

// Result of one image-extraction request. Claims is plain bulleted text,
// not structured.
type Result struct {
	ExtractedText string
	Claims        string
}

type Reader struct {
	vision llm.VisionClient
	text   llm.Client
}

func NewReader(visionClient llm.VisionClient, textClient llm.Client) *Reader {
	return &Reader{vision: visionClient, text: textClient}
}

// Extract transcribes up to MaxImages base64 data URIs in one vision call.
// When extractClaims is set and any text was found, a second call distills
// the text into bulleted claims; a failure there degrades to text-only.
func (r *Reader) Extract(ctx context.Context, images []string, extractClaims bool) (*Result, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(images) > MaxImages {
		return nil, ErrTooManyImages
	}
	if r.vision == nil {
		return nil, errors.New("configured llm provider has no vision support")
	}

	parts := make([]llm.Image, 0, len(images))
	for i, uri := range images {
		img, err := decodeDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: image %d: %v", ErrBadImage, i, err)
		}
		parts = append(parts, img)
	}

	text, err := r.vision.GenerateVision(ctx, transcribePrompt, parts)
	if err != nil {
		return nil, fmt.Errorf("vision call failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(strings.ToUpper(text), noTextSentinel) {
		return &Result{}, nil
	}

	res := &Result{ExtractedText: text}
	if extractClaims {
		res.Claims = r.claimsFromText(ctx, text)
	}
	return res, nil
}

func (r *Reader) claimsFromText(ctx context.Context, text string) string {
	if runes := []rune(text); len(runes) > maxClaimsInputLen {
		text = string(runes[:maxClaimsInputLen])
	}

	prompt := fmt.Sprintf(`List the atomic, verifiable factual claims in the following text as plain bullet points, one per line, "- " prefix.
Exclude opinions, jokes and predictions. No other output.

Text:
%s`, text)

	out, err := r.text.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature:     0,
		MaxOutputTokens: 512,
	})
	if err != nil {
		log.Printf("claims pass over image text failed: %v", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// decodeDataURI splits a "data:image/png;base64,...." URI into its MIME type
// and decoded bytes.
func decodeDataURI(uri string) (llm.Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return llm.Image{}, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return llm.Image{}, errors.New("malformed data URI")
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return llm.Image{}, errors.New("data URI must be base64-encoded")
	}
	if !strings.HasPrefix(mime, "image/") {
		return llm.Image{}, fmt.Errorf("unsupported media type %q", mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return llm.Image{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return llm.Image{MIMEType: mime, Data: data}, nil
}
