// Package report keeps the append-only history of training metrics and
// renders it for operators. Every pipeline run appends one line per
// trained segment; the log is never rewritten, so regressions between
// runs stay visible.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"especulai/internal/models"
)

// ErrLogBadSchema marks a metrics log whose header does not match the
// expected layout.
var ErrLogBadSchema = errors.New("report: unexpected metrics log layout")

var logColumns = []string{
	"timestamp",
	"segmento",
	"modelo",
	"mae",
	"rmse",
	"r2",
	"linhas",
}

// Log is the append-only metrics history backed by one tab-separated
// file.
type Log struct {
	path string
}

// NewLog returns a log over the given path. The file is created on the
// first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append adds one line per record to the history. The header is
// written only when the file is new.
func (l *Log) Append(records []models.MetricsRecord) error {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open %q: %w", l.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("report: stat %q: %w", l.path, err)
	}

	w := bufio.NewWriter(f)

	if info.Size() == 0 {
		if _, err := w.WriteString(strings.Join(logColumns, "\t") + "\n"); err != nil {
			_ = f.Close()

			return fmt.Errorf("report: write header: %w", err)
		}
	}

	for _, rec := range records {
		line := strings.Join([]string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Segment,
			rec.Model,
			strconv.FormatFloat(rec.MAE, 'f', 2, 64),
			strconv.FormatFloat(rec.RMSE, 'f', 2, 64),
			strconv.FormatFloat(rec.R2, 'f', 4, 64),
			strconv.Itoa(rec.RowCount),
		}, "\t")

		if _, err := w.WriteString(line + "\n"); err != nil {
			_ = f.Close()

			return fmt.Errorf("report: write record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()

		return fmt.Errorf("report: flush: %w", err)
	}

	return f.Close()
}

// ReadAll loads the full history. A missing file is an empty history,
// not an error.
func (l *Log) ReadAll() ([]models.MetricsRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report: open %q: %w", l.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		return nil, nil
	}

	if scanner.Text() != strings.Join(logColumns, "\t") {
		return nil, fmt.Errorf("%w: %s", ErrLogBadSchema, l.path)
	}

	var records []models.MetricsRecord

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(logColumns) {
			return nil, fmt.Errorf("%w: row with %d fields", ErrLogBadSchema, len(fields))
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("report: parse %q: %w", l.path, err)
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("report: read %q: %w", l.path, err)
	}

	return records, nil
}

func parseRecord(fields []string) (models.MetricsRecord, error) {
	var rec models.MetricsRecord

	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return rec, fmt.Errorf("timestamp %q: %w", fields[0], err)
	}

	mae, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return rec, fmt.Errorf("mae %q: %w", fields[3], err)
	}

	rmse, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return rec, fmt.Errorf("rmse %q: %w", fields[4], err)
	}

	r2, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return rec, fmt.Errorf("r2 %q: %w", fields[5], err)
	}

	rows, err := strconv.Atoi(fields[6])
	if err != nil {
		return rec, fmt.Errorf("linhas %q: %w", fields[6], err)
	}

	rec.Timestamp = ts
	rec.Segment = fields[1]
	rec.Model = fields[2]
	rec.MAE = mae
	rec.RMSE = rmse
	rec.R2 = r2
	rec.RowCount = rows

	return rec, nil
}
