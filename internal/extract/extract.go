// Package extract turns uploaded files into document content.
package extract

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/llm"
	"github.com/dvloznov/docrisk/internal/logger"
)

var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

var documentMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
}

// Service dispatches files to a handler by extension.
type Service struct {
	extractor llm.Extractor
}

// NewService creates a Service. A nil extractor leaves PDFs and images
// unreadable; they decode to an error payload instead of failing.
func NewService(extractor llm.Extractor) *Service {
	return &Service{extractor: extractor}
}

// Supported reports whether filename has an extension Extract handles.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, doc := documentMIMETypes[ext]
	return spreadsheetExts[ext] || doc || ext == ".csv" || ext == ".txt"
}

// Extract reads data according to the extension of filename.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) (domain.Content, error) {
	log := logger.FromContext(ctx)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case spreadsheetExts[ext]:
		t, err := Spreadsheet(data)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ext == ".csv":
		t, err := CSV(data)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ext == ".txt":
		return &domain.Text{Content: string(data)}, nil
	}

	mimeType, ok := documentMIMETypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}

	if s.extractor == nil {
		log.Warn().Str("filename", filename).Msg("No text extractor configured")
		return &domain.Unrecognized{Reason: fmt.Sprintf("no text extractor configured for %s files", ext)}, nil
	}

	text, err := s.extractor.ExtractText(ctx, data, mimeType)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Text extraction failed")
		return &domain.Unrecognized{Reason: fmt.Sprintf("error processing %s file: %v", ext, err)}, nil
	}
	return &domain.Text{Content: text}, nil
}

// tabular builds rows from a header line and string records. Blank headers
// become "Unnamed: N" and repeated headers get a ".N" suffix.
func tabular(header []string, records [][]string) *domain.Tabular {
	headers := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}

	t := &domain.Tabular{Headers: headers, Rows: make([]domain.Row, 0, len(records))}
	for _, rec := range records {
		row := make(domain.Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = cellValue(rec[i])
			} else {
				row[h] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// cellValue maps an empty cell to nil and a numeric-looking cell to float64.
func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
