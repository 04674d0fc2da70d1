package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/docrisk/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV reads comma-separated data with a header line. Ragged rows are
// padded with nulls.
func CSV(data []byte) (*domain.Tabular, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &domain.Tabular{Rows: []domain.Row{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	lineNum := 1
	for {
		lineNum++
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	return tabular(header, records), nil
}
