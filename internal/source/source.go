// Package source reads the input domain list. Text, CSV and XLSX files are
// supported; the result is trimmed, de-duplicated and optionally capped.
package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"logocluster/internal/config"
	"logocluster/pkg/logger"
	"logocluster/pkg/serrors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DefaultColumn is the header looked up in tabular inputs.
const DefaultColumn = "domain"

// Stdin is the path that selects standard input (text format).
const Stdin = "-"

// Options configures Load.
type Options struct {
	// Path of the input file, or Stdin.
	Path string
	// Column is the header of the domain column in CSV and XLSX files. Default DefaultColumn.
	Column string
	// Sheet selects the XLSX sheet. Default is the first sheet.
	Sheet string
	// Limit keeps only the first Limit domains after de-duplication. Zero keeps all.
	Limit int
}

// NewOptions maps the input section of cfg and the domain limit.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Path:   cfg.Input.Path,
		Column: cfg.Input.Column,
		Sheet:  cfg.Input.Sheet,
		Limit:  cfg.Pipeline.DomainLimit,
	}
}

// Load reads domains from opts.Path. Blank values are dropped and only the
// first occurrence of a domain is kept, preserving input order.
func Load(ctx context.Context, opts Options) ([]string, error) {
	if opts.Column == "" {
		opts.Column = DefaultColumn
	}

	var (
		raw []string
		err error
	)
	switch strings.ToLower(filepath.Ext(opts.Path)) {
	case ".xlsx", ".xlsm":
		raw, err = readXLSX(opts.Path, opts.Sheet, opts.Column)
	case ".csv":
		raw, err = withFile(opts.Path, func(r io.Reader) ([]string, error) {
			return ReadCSV(r, opts.Column)
		})
	default:
		raw, err = withFile(opts.Path, ReadLines)
	}
	if err != nil {
		return nil, err
	}

	domains := Normalize(raw, opts.Limit)
	logger.Info(ctx, "domains loaded",
		zap.String("path", opts.Path),
		zap.Int("read", len(raw)),
		zap.Int("kept", len(domains)))

	return domains, nil
}

// Normalize trims values, drops blanks and duplicates, and applies limit.
func Normalize(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

func withFile(path string, read func(io.Reader) ([]string, error)) ([]string, error) {
	if path == Stdin {
		return read(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not open domain list")
	}
	defer func() {
		_ = f.Close()
	}()

	return read(f)
}

// ReadLines reads one domain per line. Lines starting with '#' are comments.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read domain list")
	}

	return out, nil
}

// ReadCSV reads the values of column from a CSV stream with a header row.
func ReadCSV(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read csv header")
	}
	idx, err := columnIndex(header, column)
	if err != nil {
		return nil, err
	}

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read csv record")
		}
		if idx < len(rec) {
			out = append(out, rec[idx])
		}
	}

	return out, nil
}

func readXLSX(path, sheet, column string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not open workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, serrors.With(serrors.ErrBadRequest, "workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx, err := columnIndex(rows[0], column)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}

	return out, nil
}

func columnIndex(header []string, column string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), column) {
			return i, nil
		}
	}

	return 0, serrors.With(serrors.ErrBadRequest, "column %q not found in header %v", column, header)
}
