package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is the live generation and embedding backend. It implements
// both Generator and Embedder.
type GeminiClient struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
	embeddingDim    int
}

func NewGeminiClient(ctx context.Context, apiKey, generationModel, embeddingModel string, embeddingDim int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{
		client:          client,
		generationModel: generationModel,
		embeddingModel:  embeddingModel,
		embeddingDim:    embeddingDim,
	}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (c *GeminiClient) GenerateJSON(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	model := c.client.GenerativeModel(c.generationModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	temp := float32(0.2)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}
	return collectText(resp)
}

func (c *GeminiClient) GenerateWithImage(ctx context.Context, systemInstruction, userPrompt, imageBase64, mimeType string) (string, error) {
	imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	format := strings.TrimPrefix(mimeType, "image/")

	model := c.client.GenerativeModel(c.generationModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, imageBytes), genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini vision request failed: %w", err)
	}
	return collectText(resp)
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.IsAvailable() {
		return nil, ErrEmbeddingUnavailable
	}
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	if len(res.Embedding.Values) != c.embeddingDim {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrIncompleteEmbedding, len(res.Embedding.Values), c.embeddingDim)
	}
	return res.Embedding.Values, nil
}

func (c *GeminiClient) IsAvailable() bool {
	return c != nil && c.client != nil
}

func (c *GeminiClient) Dimension() int {
	return c.embeddingDim
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return text.String(), nil
}
