package llm

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewGeminiGeneratorRejectsEmptyKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), "  ", "gemini-2.5-flash"); err == nil {
		t.Fatal("expected missing key error, got nil")
	}
}

func TestToGenaiSchemaConversion(t *testing.T) {
	s := toGenaiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fuel_type": map[string]any{
				"type":        "string",
				"description": "Type of fuel",
				"enum":        []string{"diesel", "gasoline"},
			},
			"energy_kwh": map[string]any{
				"type": "number",
			},
		},
		"required": []any{"fuel_type"},
	})
	if s.Type != genai.TypeObject {
		t.Fatalf("type=%v", s.Type)
	}
	fuel := s.Properties["fuel_type"]
	if fuel == nil || fuel.Type != genai.TypeString {
		t.Fatalf("fuel_type schema=%+v", fuel)
	}
	if len(fuel.Enum) != 2 || fuel.Enum[0] != "diesel" {
		t.Fatalf("enum=%v", fuel.Enum)
	}
	if s.Properties["energy_kwh"].Type != genai.TypeNumber {
		t.Fatalf("energy_kwh type=%v", s.Properties["energy_kwh"].Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "fuel_type" {
		t.Fatalf("required=%v", s.Required)
	}
}

func TestToGenaiSchemaEmpty(t *testing.T) {
	if s := toGenaiSchema(nil); s != nil {
		t.Fatalf("schema=%+v want nil", s)
	}
}
