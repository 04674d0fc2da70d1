package extract

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/docrisk/internal/domain"
)

// Spreadsheet reads the first sheet of a workbook. The first row holds the
// headers. Cells are read raw, so date cells arrive as Excel serial numbers.
func Spreadsheet(data []byte) (*domain.Tabular, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return &domain.Tabular{Rows: []domain.Row{}}, nil
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &domain.Tabular{Rows: []domain.Row{}}, nil
	}
	return tabular(rows[0], rows[1:]), nil
}
