package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// naTokens are the cell values read as missing, matching the pandas defaults
// for the values that occur in exported survey data.
var naTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
	"None": true,
	"<NA>": true,
}

// ReadFile loads a .csv or .xlsx file. A missing file yields ErrSourceNotFound.
func ReadFile(path string) (*Frame, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrSourceNotFound, "missing input data: %s", path)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".csv", ".txt", "":
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer file.Close()
		return ReadCSV(file)
	default:
		return nil, errors.NewValueError("dataset.ReadFile", "unsupported file type: "+filepath.Ext(path))
	}
}

// ReadCSV parses a header row followed by data rows.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	return fromRecords(records)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(path string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrEmptyData
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	return fromRecords(rows)
}

// fromRecords infers a Numeric column when every non-missing cell parses as a
// float, otherwise Categorical. Short rows are padded with missing cells.
func fromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}
	header := records[0]
	body := records[1:]
	if len(body) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no data rows")
	}

	cols := make([]Column, len(header))
	for j, name := range header {
		raw := make([]string, len(body))
		numeric := true
		for i, rec := range body {
			cell := ""
			if j < len(rec) {
				cell = strings.TrimSpace(rec[j])
			}
			if naTokens[cell] {
				cell = ""
			} else if numeric {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					numeric = false
				}
			}
			raw[i] = cell
		}

		name = strings.TrimSpace(name)
		if !numeric {
			cols[j] = CategoricalColumn(name, raw)
			continue
		}
		vals := make([]float64, len(raw))
		for i, cell := range raw {
			if cell == "" {
				vals[i] = math.NaN()
				continue
			}
			vals[i], _ = strconv.ParseFloat(cell, 64)
		}
		cols[j] = NumericColumn(name, vals)
	}
	return New(cols...)
}

// WriteCSV writes the frame with a header row. Missing cells are written empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return errors.Wrap(err, "write header")
	}
	rec := make([]string, len(f.cols))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.cols {
			rec[j] = c.cell(i)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush CSV")
}
