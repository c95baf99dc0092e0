// Package loader reads uploaded or local dataset files into raw tables.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/xuri/excelize/v2"
)

// Format identifies a dataset file encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmptyFile         = errors.New("dataset file has no header row")
	ErrMalformed         = errors.New("malformed dataset file")
)

const utf8BOM = "\ufeff"

// ParseFormat maps a user supplied format name ("csv", ".XLSX") to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case "xls":
		// excelize reads Office Open XML workbooks only.
		return "", fmt.Errorf("%w: %q is a legacy Excel workbook, save it as .xlsx", ErrUnsupportedFormat, name)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromName infers the format from a file name extension.
func FormatFromName(filename string) (Format, error) {
	return ParseFormat(filepath.Ext(filename))
}

// Load reads a whole dataset from r. Blank rows are skipped and a leading
// byte order mark is removed from the header.
func Load(ctx context.Context, r io.Reader, format Format) (dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Table{}, err
	}

	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(ctx, r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return dataset.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return dataset.Table{}, err
	}

	records = dropBlank(records)
	if len(records) == 0 {
		return dataset.Table{}, ErrEmptyFile
	}
	header := records[0]
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	return dataset.Table{Header: header, Rows: records[1:]}, nil
}

// LoadFile opens path and loads it using the format implied by its extension.
func LoadFile(ctx context.Context, path string) (dataset.Table, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return dataset.Table{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(ctx, f, format)
}

func readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %w", ErrMalformed, err)
		}
		records = append(records, rec)
	}
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %w", ErrMalformed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrMalformed, sheets[0], err)
	}
	return rows, nil
}

func dropBlank(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
