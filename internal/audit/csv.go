package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
)

// Row is one line of audit-log.csv.
type Row struct {
	Timestamp   time.Time
	RunID       string
	Record      string // entry, warning, error or run
	Code        string
	Kind        faults.Kind
	Step        string
	Source      string
	Message     string
	Recoverable bool
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,run_id,record,code,kind,step,source,message,recoverable"

const (
	numFields      = 9
	colTimestamp   = 0
	colRunID       = 1
	colRecord      = 2
	colCode        = 3
	colKind        = 4
	colStep        = 5
	colSource      = 6
	colMessage     = 7
	colRecoverable = 8
)

// Rows flattens a snapshot into rows ordered by timestamp. A completed
// snapshot ends with a run row carrying its status.
func Rows(s Snapshot) []Row {
	rows := make([]Row, 0, len(s.Entries)+len(s.Warnings)+len(s.Errors))
	for _, e := range s.Entries {
		msg := e.Output
		if e.Notes != "" {
			msg = strings.TrimSpace(msg + " " + e.Notes)
		}
		rows = append(rows, Row{
			Timestamp: e.Timestamp, RunID: s.RunID, Record: "entry", Code: e.Action,
			Step: e.Step, Source: e.Source.Reference(), Message: msg,
		})
	}
	for _, w := range s.Warnings {
		rows = append(rows, Row{
			Timestamp: w.Timestamp, RunID: s.RunID, Record: "warning", Code: w.Code, Kind: w.Kind,
			Source: w.Source.Reference(), Message: w.Message, Recoverable: true,
		})
	}
	for _, e := range s.Errors {
		rows = append(rows, Row{
			Timestamp: e.Timestamp, RunID: s.RunID, Record: "error", Code: e.Code, Kind: e.Kind,
			Source: e.Source.Reference(), Message: e.Message, Recoverable: e.Recoverable,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	if s.CompletedAt != nil {
		rows = append(rows, Row{
			Timestamp: *s.CompletedAt, RunID: s.RunID, Record: "run", Code: string(s.Status),
			Message: fmt.Sprintf("%d entries, %d warnings, %d errors", len(s.Entries), len(s.Warnings), len(s.Errors)),
		})
	}
	return rows
}

// MarshalRow converts a Row to CSV fields.
func MarshalRow(r Row) []string {
	row := make([]string, numFields)
	row[colTimestamp] = r.Timestamp.Format(time.RFC3339Nano)
	row[colRunID] = r.RunID
	row[colRecord] = r.Record
	row[colCode] = r.Code
	row[colKind] = string(r.Kind)
	row[colStep] = r.Step
	row[colSource] = r.Source
	row[colMessage] = r.Message
	row[colRecoverable] = strconv.FormatBool(r.Recoverable)
	return row
}

// UnmarshalRow converts CSV fields to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return Row{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	recoverable, err := strconv.ParseBool(record[colRecoverable])
	if err != nil {
		return Row{}, fmt.Errorf("parsing recoverable %q: %w", record[colRecoverable], err)
	}

	return Row{
		Timestamp:   ts,
		RunID:       record[colRunID],
		Record:      record[colRecord],
		Code:        record[colCode],
		Kind:        faults.Kind(record[colKind]),
		Step:        record[colStep],
		Source:      record[colSource],
		Message:     record[colMessage],
		Recoverable: recoverable,
	}, nil
}

// WriteCSV writes a header and every record of the snapshot.
func WriteCSV(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writeRows(cw, Rows(s)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// AppendFile appends the snapshot to an audit log, creating the file and header if needed.
func AppendFile(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := writeRows(cw, Rows(s)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile returns all rows of an audit log.
// Returns an empty slice if the file does not exist.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readRows(f)
}

func writeRows(cw *csv.Writer, rows []Row) error {
	for i, r := range rows {
		if err := cw.Write(MarshalRow(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return nil
}

func readRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
