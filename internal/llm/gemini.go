package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator is the production Generator over the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini generator requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if decls := functionDeclarations(req.Tools); len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Result{}, err
	}

	res := Result{Text: resp.Text()}
	if len(resp.Candidates) > 0 {
		res.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	for _, fc := range resp.FunctionCalls() {
		res.ToolCalls = append(res.ToolCalls, ToolCall{Name: fc.Name, Args: fc.Args})
	}
	return res, nil
}

func functionDeclarations(tools []ToolDecl) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGenaiSchema(t.Parameters),
		})
	}
	return decls
}

// toGenaiSchema converts a JSON-schema-shaped parameter map into a genai
// schema. Type names are uppercased as the API expects; unknown keys are
// dropped rather than rejected.
func toGenaiSchema(m map[string]any) *genai.Schema {
	if len(m) == 0 {
		return nil
	}
	s := &genai.Schema{}
	if v, ok := m["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(v))
	}
	if v, ok := m["description"].(string); ok {
		s.Description = v
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := m["enum"].([]string); ok {
		s.Enum = append(s.Enum, enum...)
	} else if raw, ok := m["enum"].([]any); ok {
		for _, e := range raw {
			if sv, ok := e.(string); ok {
				s.Enum = append(s.Enum, sv)
			}
		}
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = append(s.Required, req...)
	} else if raw, ok := m["required"].([]any); ok {
		for _, e := range raw {
			if sv, ok := e.(string); ok {
				s.Required = append(s.Required, sv)
			}
		}
	}
	return s
}
