package scanning

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is a transfer-safe encoding of an uploaded file
type Document struct {
	Data     string // standard base64 of the file content
	MimeType string // declared media type, verbatim
	Pages    int    // 0 when the page count could not be determined
}

// Bytes decodes the payload back into the original binary content
func (d Document) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding document payload: %w", err)
	}
	return raw, nil
}

// EncodeDocument reads r fully and base64-encodes it.
// A failing read is reported as a *ReadError.
func EncodeDocument(r io.Reader, mimeType string) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, &ReadError{Err: err}
	}

	return Document{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
		Pages:    countPages(raw, mimeType),
	}, nil
}

// DocumentFromDataURL strips the "data:<type>;base64," framing from a data URL
// and keeps the payload. When mimeType is empty the type embedded in the URL is used.
func DocumentFromDataURL(dataURL string, mimeType string) (Document, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return Document{}, &ReadError{Err: fmt.Errorf("malformed data URL")}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Document{}, &ReadError{Err: fmt.Errorf("decoding data URL: %w", err)}
	}

	if mimeType == "" {
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	}

	return Document{
		Data:     payload,
		MimeType: mimeType,
		Pages:    countPages(raw, mimeType),
	}, nil
}

// countPages is informational only; a PDF pdfcpu cannot read is still
// handed to the model, which is often more forgiving with scanner output.
func countPages(raw []byte, mimeType string) int {
	if !isPDFMediaType(mimeType) {
		return 0
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(bytes.NewReader(raw), conf)
	if err != nil {
		slog.Warn("Could not count PDF pages", "size", len(raw), "error", err)
		return 0
	}
	return pages
}

// isPDFMediaType reports whether a declared type names a PDF, ignoring parameters
func isPDFMediaType(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	return err == nil && mediaType == "application/pdf"
}
