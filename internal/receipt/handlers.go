package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-ledger/internal/export"
	"github.com/zombor/receipt-ledger/internal/scanning"
)

// maxUploadSize bounds a single uploaded document
const maxUploadSize = int64(50 << 20) // 50MB

// User-facing failure messages
const (
	msgOnlyPDF         = "PDFファイルのみアップロード可能です。"
	msgNoFile          = "ファイルが選択されていません。"
	msgTooLarge        = "ファイルが大きすぎます。上限は50MBです。"
	msgExtractFailed   = "解析中にエラーが発生しました。"
	msgNormalizeFailed = "AIの応答を解析できませんでした。もう一度お試しください。"
	msgNotFound        = "解析結果が見つかりません。"
	msgInternal        = "Internal server error"
)

// corsError writes a plain text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// displaySummary is the summary formatted for the results dashboard
type displaySummary struct {
	TotalAmount     string `json:"total_amount"`
	Total10Percent  string `json:"total_10_percent"`
	Total8Percent   string `json:"total_8_percent"`
	TotalNonInvoice string `json:"total_non_invoice"`
}

type analysisResponse struct {
	*AnalysisResult
	Display displaySummary `json:"display"`
}

func newAnalysisResponse(result *AnalysisResult) analysisResponse {
	return analysisResponse{
		AnalysisResult: result,
		Display: displaySummary{
			TotalAmount:     export.FormatYen(result.Summary.TotalAmount),
			Total10Percent:  export.FormatYen(result.Summary.Total10Percent),
			Total8Percent:   export.FormatYen(result.Summary.Total8Percent),
			TotalNonInvoice: export.FormatYen(result.Summary.TotalNonInvoice),
		},
	}
}

// dataURLRequest is the JSON alternative to a multipart upload
type dataURLRequest struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data_url"`
}

// handleCreateAnalysis accepts one PDF, as a multipart upload or a JSON data URL, and analyzes it
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		result *AnalysisResult
		err    error
	)
	switch mediaType {
	case "application/json":
		var req dataURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, uploadErrorMessage(err, "Invalid request body"), http.StatusBadRequest)
			return
		}

		doc, docErr := scanning.DocumentFromDataURL(req.DataURL, "")
		if docErr != nil {
			jsonError(w, docErr.Error(), http.StatusBadRequest)
			return
		}
		if !isPDF(doc.MimeType, req.Filename) {
			jsonError(w, msgOnlyPDF, http.StatusUnsupportedMediaType)
			return
		}
		doc.MimeType = documentType(doc.MimeType)

		result, err = s.service.AnalyzeDocument(r.Context(), req.Filename, doc)

	default:
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			slog.Error("Error parsing multipart form", "error", err)
			jsonError(w, uploadErrorMessage(err, "Error parsing form"), http.StatusBadRequest)
			return
		}

		f, header, formErr := r.FormFile("file")
		if formErr != nil {
			slog.Error("Error getting file from form", "error", formErr)
			jsonError(w, msgNoFile, http.StatusBadRequest)
			return
		}
		defer f.Close()

		if !isPDF(header.Header.Get("Content-Type"), header.Filename) {
			jsonError(w, msgOnlyPDF, http.StatusUnsupportedMediaType)
			return
		}

		result, err = s.service.Analyze(r.Context(), header.Filename, f, documentType(header.Header.Get("Content-Type")))
	}

	if err != nil {
		status, message := analysisFailure(err)
		jsonError(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(newAnalysisResponse(result)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetAnalysis returns a stored analysis
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetAnalysis(r.PathValue("id"))
	if err != nil {
		jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newAnalysisResponse(result)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDeleteAnalysis discards a stored analysis
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAnalysis(r.PathValue("id")); err != nil {
		jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport downloads a stored analysis as json, csv or xlsx
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.service.Export(r.PathValue("id"), r.PathValue("format"))
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, msgNotFound, http.StatusNotFound)
		return
	case errors.Is(err, ErrUnknownFormat):
		jsonError(w, fmt.Sprintf("format must be one of %s", strings.Join(Formats, ", ")), http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("Error exporting analysis", "id", r.PathValue("id"), "format", r.PathValue("format"), "error", err)
		jsonError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", artifact.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Write(artifact.Data)
}

// isPDF checks the declared media type, falling back to the extension when none is declared
func isPDF(contentType string, filename string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType != "application/octet-stream" {
		return mediaType == "application/pdf"
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// documentType keeps a declared PDF type verbatim. Uploads accepted on their
// .pdf extension alone are labelled application/pdf.
func documentType(declared string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType == "application/pdf" {
		return declared
	}
	return "application/pdf"
}

// analysisFailure maps a pipeline failure to a status code and a message safe to show users
func analysisFailure(err error) (int, string) {
	var (
		readErr    *scanning.ReadError
		extractErr *scanning.ExtractionError
		normErr    *scanning.NormalizationError
	)
	switch {
	case errors.As(err, &readErr):
		return http.StatusBadRequest, readErr.Error()
	case errors.As(err, &extractErr):
		return http.StatusBadGateway, msgExtractFailed
	case errors.As(err, &normErr):
		return http.StatusBadGateway, msgNormalizeFailed
	default:
		slog.Error("Error analyzing document", "error", err)
		return http.StatusInternalServerError, msgInternal
	}
}

func uploadErrorMessage(err error, fallback string) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return msgTooLarge
	}
	return fallback
}
