package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		extractor *Ollama
		doc       Document
		set       InstructionSet
		captured  ollamaChatRequest
		text      string
		err       error
	)

	stubRenderer := func(pdf []byte) ([][]byte, error) {
		return [][]byte{[]byte("page-1"), []byte("page-2")}, nil
	}

	capture := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &captured)).To(Succeed())
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		captured = ollamaChatRequest{}

		extractor, err = NewOllamaWithRenderer(server.URL(), "qwen2.5vl", stubRenderer)
		Expect(err).NotTo(HaveOccurred())

		doc = Document{
			Data:     base64.StdEncoding.EncodeToString([]byte("%PDF-1.7")),
			MimeType: "application/pdf",
		}
		set = DefaultInstructionSet()
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.Extract(context.Background(), doc, set)
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				capture,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"role": "assistant", "content": "  [{\"id\": 1}]\n"},
					"done":    true,
				}),
			))
		})

		It("should return the trimmed content", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`[{"id": 1}]`))
		})

		It("should send the instruction set", func() {
			Expect(captured.Model).To(Equal("qwen2.5vl"))
			Expect(captured.Stream).To(BeFalse())
			Expect(captured.Options.Temperature).To(Equal(set.Temperature))
			Expect(captured.Format).To(HaveKeyWithValue("type", "array"))
			Expect(captured.Messages).To(HaveLen(2))
			Expect(captured.Messages[0].Role).To(Equal("system"))
			Expect(captured.Messages[0].Content).To(Equal(set.System))
			Expect(captured.Messages[1].Content).To(Equal(set.Task))
		})

		It("should attach every rendered page", func() {
			Expect(captured.Messages[1].Images).To(Equal([]string{
				base64.StdEncoding.EncodeToString([]byte("page-1")),
				base64.StdEncoding.EncodeToString([]byte("page-2")),
			}))
		})
	})

	When("the document is an image", func() {
		BeforeEach(func() {
			doc = Document{Data: base64.StdEncoding.EncodeToString([]byte("png")), MimeType: "image/png"}
			server.AppendHandlers(ghttp.CombineHandlers(
				capture,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"content": "[]"},
				}),
			))
		})

		It("should pass the payload through", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Messages[1].Images).To(Equal([]string{doc.Data}))
		})
	})

	When("the declared PDF type carries parameters", func() {
		BeforeEach(func() {
			doc.MimeType = "application/pdf; name=scan.pdf"
			server.AppendHandlers(ghttp.CombineHandlers(
				capture,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"content": "[]"},
				}),
			))
		})

		It("should still render the pages", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Messages[1].Images).To(HaveLen(2))
		})
	})

	When("the model answers with nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"message": map[string]any{"content": "   "},
			}))
		})

		It("returns an empty response error", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(err).To(MatchError(ErrEmptyResponse))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns an ExtractionError with the status", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("500"))
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})

	When("the media type cannot be rendered", func() {
		BeforeEach(func() {
			doc.MimeType = "text/plain"
		})

		It("returns an ExtractionError without calling the server", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("rendering fails", func() {
		BeforeEach(func() {
			extractor, _ = NewOllamaWithRenderer(server.URL(), "", func([]byte) ([][]byte, error) {
				return nil, errors.New("corrupt xref")
			})
		})

		It("returns an ExtractionError", func() {
			var extractErr *ExtractionError
			Expect(errors.As(err, &extractErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("corrupt xref"))
		})
	})
})
