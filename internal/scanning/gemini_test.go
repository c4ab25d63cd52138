package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("geminiSchema", func() {
	var (
		schema *genai.Schema
		err    error
	)

	JustBeforeEach(func() {
		schema, err = geminiSchema(ReceiptSchema())
	})

	It("should not return an error", func() {
		Expect(err).NotTo(HaveOccurred())
	})

	It("should describe an array of objects", func() {
		Expect(schema.Type).To(Equal(genai.TypeArray))
		Expect(schema.Items).NotTo(BeNil())
		Expect(schema.Items.Type).To(Equal(genai.TypeObject))
	})

	It("should carry the required subset", func() {
		Expect(schema.Items.Required).To(ConsistOf(requiredReceiptFields))
	})

	It("should mark null unions as nullable", func() {
		date := schema.Items.Properties["date"]
		Expect(date.Type).To(Equal(genai.TypeString))
		Expect(date.Nullable).To(BeTrue())
	})

	It("should keep enums and descriptions", func() {
		status := schema.Items.Properties["status"]
		Expect(status.Enum).To(Equal([]string{"success", "error"}))
		Expect(status.Description).NotTo(BeEmpty())
	})

	It("should map numeric types", func() {
		Expect(schema.Items.Properties["id"].Type).To(Equal(genai.TypeInteger))
		Expect(schema.Items.Properties["total_amount"].Type).To(Equal(genai.TypeNumber))
		Expect(schema.Items.Properties["has_invoice"].Type).To(Equal(genai.TypeBoolean))
	})

	When("the schema uses an unsupported type", func() {
		It("returns the error", func() {
			_, err := geminiSchema(map[string]any{"type": "date"})
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("responseText", func() {
	It("should join text parts of the first candidate", func() {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(" [{\"id\":"), genai.Text("1}] ")}}},
			},
		}
		Expect(responseText(resp)).To(Equal(`[{"id":1}]`))
	})

	It("should return empty for a response without candidates", func() {
		Expect(responseText(&genai.GenerateContentResponse{})).To(BeEmpty())
		Expect(responseText(nil)).To(BeEmpty())
	})
})

var _ = Describe("Gemini", func() {
	const generatePath = "/v1beta/models/receipt-model:generateContent"

	var (
		server    *ghttp.Server
		extractor *Gemini
		doc       Document
		set       InstructionSet
		captured  map[string]any
		text      string
		err       error
	)

	capture := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &captured)).To(Succeed())
	}

	answer := func(parts ...map[string]any) http.HandlerFunc {
		if parts == nil {
			parts = []map[string]any{}
		}
		return ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"role": "model", "parts": parts}},
			},
		})
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		captured = nil

		client, clientErr := genai.NewClient(context.Background(),
			option.WithAPIKey("test-key"),
			option.WithEndpoint(server.URL()),
			option.WithHTTPClient(http.DefaultClient),
		)
		Expect(clientErr).NotTo(HaveOccurred())
		extractor = &Gemini{client: client, modelName: "receipt-model"}

		doc = Document{
			Data:     base64.StdEncoding.EncodeToString([]byte("%PDF-1.7")),
			MimeType: "application/pdf",
		}
		set = DefaultInstructionSet()
	})

	AfterEach(func() {
		extractor.Close()
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.Extract(context.Background(), doc, set)
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, generatePath),
				capture,
				answer(map[string]any{"text": " [{\"id\": 1}] "}),
			))
		})

		It("should return the trimmed text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`[{"id": 1}]`))
		})

		It("should send the system instruction", func() {
			Expect(captured).To(HaveKeyWithValue("systemInstruction",
				HaveKeyWithValue("parts", ContainElement(HaveKeyWithValue("text", set.System)))))
		})

		It("should ask for schema-shaped JSON with low temperature", func() {
			Expect(captured).To(HaveKey("generationConfig"))
			config := captured["generationConfig"].(map[string]any)
			Expect(config).To(HaveKeyWithValue("responseMimeType", "application/json"))
			Expect(config).To(HaveKey("responseSchema"))
			Expect(config["temperature"]).To(BeNumerically("~", 0.1, 1e-6))
		})

		It("should send the document inline with its declared media type", func() {
			contents := captured["contents"].([]any)
			Expect(contents).To(HaveLen(1))
			parts := contents[0].(map[string]any)["parts"].([]any)
			Expect(parts).To(HaveLen(2))

			inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
			Expect(inline).To(HaveKeyWithValue("mimeType", "application/pdf"))
			Expect(inline).To(HaveKeyWithValue("data", doc.Data))
			Expect(parts[1]).To(HaveKeyWithValue("text", set.Task))
		})
	})

	When("the model answers with nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, generatePath),
				answer(),
			))
		})

		It("returns an empty response error", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(err).To(MatchError(ErrEmptyResponse))
		})
	})

	When("the service fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, generatePath),
				ghttp.RespondWith(http.StatusInternalServerError,
					`{"error": {"code": 500, "message": "backend exploded", "status": "INTERNAL"}}`,
					http.Header{"Content-Type": []string{"application/json"}}),
			))
		})

		It("returns an ExtractionError", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(text).To(BeEmpty())
		})
	})

	When("the payload is not base64", func() {
		BeforeEach(func() {
			doc.Data = "%%%"
		})

		It("returns a ReadError without calling the service", func() {
			var readErr *ReadError
			Expect(errors.As(err, &readErr)).To(BeTrue())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})
