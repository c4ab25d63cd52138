package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/zombor/receipt-ledger/internal/export"
)

// ErrUnknownFormat is returned for an export format other than json, csv or xlsx
var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists the supported export formats
var Formats = []string{"json", "csv", "xlsx"}

// Artifact is a downloadable export of an analysis
type Artifact struct {
	Filename  string
	MediaType string
	Data      []byte
}

// BuildArtifact encodes the records of result in format. now dates the filename.
func BuildArtifact(result *AnalysisResult, format string, templatePath string, now time.Time) (*Artifact, error) {
	var (
		data      []byte
		mediaType string
		err       error
	)

	switch format {
	case "json":
		data, err = export.JSON(result.Data)
		mediaType = export.MediaTypeJSON
	case "csv":
		data = export.CSV(result.Data)
		mediaType = export.MediaTypeCSV
	case "xlsx":
		data, err = export.ExpenseReport(result.Data, templatePath)
		mediaType = export.MediaTypeXLSX
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", format, err)
	}

	return &Artifact{
		Filename:  export.Filename(now, format),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// Export builds an artifact for a stored analysis
func (s *Service) Export(id string, format string) (*Artifact, error) {
	result, err := s.GetAnalysis(id)
	if err != nil {
		return nil, err
	}
	return BuildArtifact(result, format, s.options.XLSXTemplate, s.timeSource.Now())
}

// SaveArtifacts exports result in each format and writes the files to storage.
// It returns the saved paths in format order and stops at the first failure.
func SaveArtifacts(storage Storage, result *AnalysisResult, formats []string, templatePath string, now time.Time) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		artifact, err := BuildArtifact(result, format, templatePath, now)
		if err != nil {
			return paths, err
		}
		path, err := storage.Save(artifact.Filename, artifact.Data)
		if err != nil {
			return paths, fmt.Errorf("saving %s: %w", artifact.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
