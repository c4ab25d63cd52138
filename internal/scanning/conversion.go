package scanning

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// maxRenderedPages bounds how many pages are rasterised for image-only models
const maxRenderedPages = 20

// pdfToImages renders every page of a PDF (up to maxRenderedPages) as PNG.
// Receipts frequently span page boundaries, so all pages are sent, not just the first.
func pdfToImages(pdfData []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if pages > maxRenderedPages {
		pages = maxRenderedPages
	}

	images := make([][]byte, 0, pages)
	for i := 0; i < pages; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding PNG for page %d: %w", i+1, err)
		}
		images = append(images, buf.Bytes())
	}

	return images, nil
}
