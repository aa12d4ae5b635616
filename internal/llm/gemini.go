package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// Gemini 2.5 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

const analysisPrompt = `Analyze this product image and provide detailed information in JSON format with the following fields:
- productName: specific product name
- brand: manufacturer/brand name
- category: product category
- condition: estimated condition (new, used, refurbished)
- specifications: object with key technical specs
- keyFeatures: array of main selling points
- suggestedTitle: SEO-optimized eBay title (max 80 chars)
- description: compelling product description (max 500 chars)
- estimatedValue: price range if identifiable

Focus on accuracy and detail for eBay listing purposes. Return only valid JSON.`

// GeminiAnalyzer uses Google's Gemini API for product image analysis.
type GeminiAnalyzer struct {
	client *genai.Client
}

// NewGeminiAnalyzer creates a new Gemini-based analyzer.
// It uses the GEMINI_API_KEY environment variable for authentication.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client}, nil
}

// AnalyzeImages sends one request containing the extraction prompt
// followed by all images in registry order, each as an inline blob tagged
// with its MIME type. Generation parameters are fixed and deterministic-
// leaning. A failed attempt is surfaced immediately; there is no retry.
func (g *GeminiAnalyzer) AnalyzeImages(ctx context.Context, images []ImageInput) (Analysis, error) {
	if len(images) == 0 {
		return nil, &EmptyInputError{}
	}

	parts := []*genai.Part{
		genai.NewPartFromText(analysisPrompt),
	}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		TopK:            genai.Ptr[float32](32),
		TopP:            genai.Ptr[float32](1),
		MaxOutputTokens: 2048,
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &TransportError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return nil, &TransportError{Err: err}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &MalformedResponseError{Err: errors.New("empty response from Gemini")}
	}

	text := result.Text()
	analysis, err := ExtractAnalysis(text)
	if err != nil {
		log.Debug().Str("response", text).Msg("unparseable model response")
		return nil, err
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", geminiModel).
		Int("imageCount", len(images)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("vision llm call")

	return analysis, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}
