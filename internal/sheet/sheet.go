// Package sheet turns an uploaded spreadsheet into a raw cell grid and
// resolves its shape: where the header row sits, which column holds which
// field, and how cell text becomes numbers and dates. Nothing in here knows
// about transactions; that is the stitcher's job.
package sheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook reports a workbook with no readable first sheet.
var ErrEmptyWorkbook = errors.New("sheet: workbook has no rows")

// Grid reads the first sheet of an xlsx workbook into a row-major grid of
// raw cell strings. Raw values are requested so date serials arrive as
// numbers instead of locale-formatted text.
func Grid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return rows, nil
}
