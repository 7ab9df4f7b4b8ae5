package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/homecare-labs/intake-api/internal/domain"
)

// Options selects the Gemini backend. APIKey takes precedence; otherwise the
// Vertex backend is used with ProjectID/Location.
type Options struct {
	APIKey    string
	ProjectID string
	Location  string
	Model     string
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a domain.ChatModel backed by Gemini.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case opts.APIKey != "":
		cc.APIKey = opts.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case opts.ProjectID != "":
		cc.Project = opts.ProjectID
		cc.Location = opts.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("either an API key or a GCP project must be configured")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiClient{client: client, modelName: model}, nil
}

// Send implements domain.ChatModel. The prior turn sequence is replayed as
// conversation contents on every call; the model keeps no memory of its own.
func (g *GeminiClient) Send(ctx context.Context, req domain.ChatRequest) (string, error) {
	var contents []*genai.Content
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Text, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(1)
	topK := float32(1)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(req.Language, req.UserContext), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		TopK:              &topK,
		MaxOutputTokens:   2048,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
