package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements the Extractor interface using a local Ollama server.
// Vision models there accept images only, so PDF pages are rasterised first.
type Ollama struct {
	baseURL   string
	model     string
	client    *http.Client
	renderPDF func([]byte) ([][]byte, error)
}

// NewOllama creates a new Ollama Extractor instance
// Recommended models for receipt extraction:
//   - qwen2.5vl (strong OCR on Japanese receipts)
//   - llama3.2-vision
//   - llava (general purpose, weaker on dense text)
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	return NewOllamaWithRenderer(baseURL, modelName, pdfToImages)
}

// NewOllamaWithRenderer creates an Ollama Extractor with a custom PDF renderer for testing
func NewOllamaWithRenderer(baseURL string, modelName string, render func([]byte) ([][]byte, error)) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "qwen2.5vl"
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 300 * time.Second, // multi-page documents are slow on local hardware
		},
		renderPDF: render,
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   map[string]any  `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Extract renders the document pages and asks the model for schema-shaped JSON
func (o *Ollama) Extract(ctx context.Context, doc Document, instructions InstructionSet) (string, error) {
	raw, err := doc.Bytes()
	if err != nil {
		return "", &ReadError{Err: err}
	}

	var images []string
	switch {
	case isPDFMediaType(doc.MimeType):
		pages, err := o.renderPDF(raw)
		if err != nil {
			return "", &ExtractionError{Err: fmt.Errorf("rendering document: %w", err)}
		}
		for _, page := range pages {
			images = append(images, base64.StdEncoding.EncodeToString(page))
		}
	case strings.HasPrefix(doc.MimeType, "image/"):
		images = []string{doc.Data}
	default:
		return "", &ExtractionError{Err: fmt.Errorf("unsupported media type %q", doc.MimeType)}
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: instructions.Schema,
		Options: ollamaOptions{
			Temperature: instructions.Temperature,
		},
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: instructions.System,
			},
			{
				Role:    "user",
				Content: instructions.Task,
				Images:  images,
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("calling ollama API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ExtractionError{Err: fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	text := strings.TrimSpace(chatResp.Message.Content)
	if text == "" {
		return "", &ExtractionError{Err: ErrEmptyResponse}
	}
	return text, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
