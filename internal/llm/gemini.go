package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-pro-latest"

// Gemini 1.5 Pro pricing (per million tokens)
const (
	inputPricePerMillion  = 1.25
	outputPricePerMillion = 5.00
)

// Sampling is pinned low to keep the model close to the response template.
// Output is capped, so the parser must tolerate answers cut mid-section.
const (
	samplingTemperature = 0.1
	samplingTopP        = 0.8
	maxOutputTokens     = 300
)

// GeminiInvoker sends shelf photos to Gemini. It implements analysis.Invoker
// and does no parsing of the answer.
type GeminiInvoker struct {
	client *genai.Client
	model  string
}

// NewGeminiInvoker creates a Gemini-backed invoker. It uses the
// GEMINI_API_KEY environment variable for authentication. An empty model
// selects the default.
func NewGeminiInvoker(ctx context.Context, model string) (*GeminiInvoker, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiInvoker{client: client, model: model}, nil
}

// Generate sends the prompt and the image to the model and returns the raw
// response text plus a token-based cost estimate (0 when usage metadata is
// missing). The caller bounds ctx with the pipeline timeout.
func (g *GeminiInvoker) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, float64, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](samplingTemperature),
		TopP:            genai.Ptr[float32](samplingTopP),
		MaxOutputTokens: maxOutputTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("no response from Gemini")
	}

	var cost float64
	if result.UsageMetadata != nil {
		inputTokens := int64(result.UsageMetadata.PromptTokenCount)
		outputTokens := int64(result.UsageMetadata.CandidatesTokenCount)
		cost = calculateGeminiCost(inputTokens, outputTokens)
		log.Info().
			Str("model", g.model).
			Int64("inputTokens", inputTokens).
			Int64("outputTokens", outputTokens).
			Float64("costUSD", cost).
			Msg("shelf analysis llm call")
	}

	return result.Text(), cost, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * outputPricePerMillion
	return inputCost + outputCost
}
