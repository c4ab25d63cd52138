package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// Extract sends the document inline with the instruction set and returns the JSON text
func (g *Gemini) Extract(ctx context.Context, doc Document, instructions InstructionSet) (string, error) {
	raw, err := doc.Bytes()
	if err != nil {
		return "", &ReadError{Err: err}
	}

	schema, err := geminiSchema(instructions.Schema)
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("converting response schema: %w", err)}
	}

	// Instruction sets are injected per call, so the model is configured per call too
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instructions.System)},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema
	model.SetTemperature(instructions.Temperature)

	parts := []genai.Part{
		genai.Blob{MIMEType: doc.MimeType, Data: raw},
		genai.Text(instructions.Task),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("generating content: %w", err)}
	}

	text := responseText(resp)
	if text == "" {
		return "", &ExtractionError{Err: ErrEmptyResponse}
	}
	return text, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// geminiSchema converts a JSON Schema map into the OpenAPI-style schema genai expects.
// A ["<type>", "null"] union becomes a nullable <type>.
func geminiSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}

	s := &genai.Schema{}
	typ, nullable, err := schemaType(m["type"])
	if err != nil {
		return nil, err
	}
	s.Type = typ
	s.Nullable = nullable

	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				s.Enum = append(s.Enum, v)
			}
		}
	}
	if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if v, ok := r.(string); ok {
				s.Required = append(s.Required, v)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items, err = geminiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			pm, ok := p.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s: expected an object", name)
			}
			s.Properties[name], err = geminiSchema(pm)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
		}
	}
	return s, nil
}

func schemaType(v any) (genai.Type, bool, error) {
	switch t := v.(type) {
	case string:
		typ, err := genaiType(t)
		return typ, false, err
	case []any:
		var (
			typ      genai.Type
			nullable bool
		)
		for _, e := range t {
			name, _ := e.(string)
			if name == "null" {
				nullable = true
				continue
			}
			if typ != genai.TypeUnspecified {
				return 0, false, fmt.Errorf("type unions other than with null are not supported")
			}
			var err error
			if typ, err = genaiType(name); err != nil {
				return 0, false, err
			}
		}
		return typ, nullable, nil
	case nil:
		return genai.TypeUnspecified, false, nil
	default:
		return 0, false, fmt.Errorf("unsupported type declaration %v", v)
	}
}

func genaiType(name string) (genai.Type, error) {
	switch name {
	case "string":
		return genai.TypeString, nil
	case "number":
		return genai.TypeNumber, nil
	case "integer":
		return genai.TypeInteger, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	case "object":
		return genai.TypeObject, nil
	default:
		return 0, fmt.Errorf("unsupported type %q", name)
	}
}
