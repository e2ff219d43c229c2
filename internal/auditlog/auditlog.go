// Package auditlog keeps the append-only CSV record of every assessment.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/loanguard/billcheck/internal/assess"
	"github.com/loanguard/billcheck/internal/model"
)

// Entry is one row in the audit log.
type Entry struct {
	ID              string
	Timestamp       time.Time
	LoanID          string
	Document        string
	Mode            model.Mode
	Verdict         model.Verdict
	RiskScore       int
	RiskCategory    model.Category
	Confidence      int
	AutoApprove     bool
	Discrepancies   int
	Recommendations []string
}

// Header is the CSV header for the audit log.
const Header = "id,timestamp,loan_id,document,mode,verdict,risk_score,risk_category,confidence,auto_approve,discrepancies,recommendations"

const (
	numFields          = 12
	colID              = 0
	colTimestamp       = 1
	colLoanID          = 2
	colDocument        = 3
	colMode            = 4
	colVerdict         = 5
	colRiskScore       = 6
	colRiskCategory    = 7
	colConfidence      = 8
	colAutoApprove     = 9
	colDiscrepancies   = 10
	colRecommendations = 11

	recSep = " | "
)

// FromAssessment builds the log entry for a.
func FromAssessment(a assess.Assessment) Entry {
	return Entry{
		ID:              a.ID,
		Timestamp:       a.AssessedAt,
		LoanID:          a.LoanID,
		Document:        filepath.Base(a.Document),
		Mode:            a.Mode,
		Verdict:         a.Result.Verdict,
		RiskScore:       a.Result.RiskScore,
		RiskCategory:    a.Result.RiskCategory,
		Confidence:      a.Result.ConfidencePercent,
		AutoApprove:     a.AutoApprove,
		Discrepancies:   len(a.Result.Discrepancies),
		Recommendations: a.Result.Recommendations,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colLoanID] = e.LoanID
	row[colDocument] = e.Document
	row[colMode] = string(e.Mode)
	row[colVerdict] = string(e.Verdict)
	row[colRiskScore] = strconv.Itoa(e.RiskScore)
	row[colRiskCategory] = string(e.RiskCategory)
	row[colConfidence] = strconv.Itoa(e.Confidence)
	row[colAutoApprove] = strconv.FormatBool(e.AutoApprove)
	row[colDiscrepancies] = strconv.Itoa(e.Discrepancies)
	row[colRecommendations] = strings.Join(e.Recommendations, recSep)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	ints := make(map[int]int, 3)
	for _, col := range []int{colRiskScore, colConfidence, colDiscrepancies} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing column %d %q: %w", col+1, record[col], err)
		}
		ints[col] = n
	}
	auto, err := strconv.ParseBool(record[colAutoApprove])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing auto_approve %q: %w", record[colAutoApprove], err)
	}

	var recs []string
	if record[colRecommendations] != "" {
		recs = strings.Split(record[colRecommendations], recSep)
	}

	return Entry{
		ID:              record[colID],
		Timestamp:       ts,
		LoanID:          record[colLoanID],
		Document:        record[colDocument],
		Mode:            model.Mode(record[colMode]),
		Verdict:         model.Verdict(record[colVerdict]),
		RiskScore:       ints[colRiskScore],
		RiskCategory:    model.Category(record[colRiskCategory]),
		Confidence:      ints[colConfidence],
		AutoApprove:     auto,
		Discrepancies:   ints[colDiscrepancies],
		Recommendations: recs,
	}, nil
}

// Append writes entries to the log at path, creating the file and header if
// needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
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

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
