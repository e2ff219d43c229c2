// Package report renders batch assessments as an XLSX workbook for loan
// officers.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/loanguard/billcheck/internal/assess"
)

// Sheet names.
const (
	SummarySheet       = "Assessments"
	DiscrepanciesSheet = "Discrepancies"
	OverviewSheet      = "Overview"
)

// Info identifies the office and run a workbook was produced for.
type Info struct {
	Lender      string
	Branch      string
	GeneratedAt time.Time
}

var summaryHeaders = []string{
	"Assessment ID",
	"Loan ID",
	"Document",
	"Mode",
	"Verdict",
	"Risk Score",
	"Risk Category",
	"Confidence %",
	"Auto-Approve",
	"Discrepancies",
	"Recommendations",
	"Error",
}

var discrepancyHeaders = []string{
	"Assessment ID",
	"Loan ID",
	"Document",
	"Kind",
	"Description",
	"Expected",
	"Actual",
}

// WriteXLSX writes one summary row per item and one row per discrepancy,
// followed by an overview of the run. Items that failed are listed on the
// summary sheet with their error.
func WriteXLSX(w io.Writer, info Info, items []assess.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for _, sheet := range []string{DiscrepanciesSheet, OverviewSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("adding sheet: %w", err)
		}
	}

	if err := writeRow(f, SummarySheet, 1, toAny(summaryHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, DiscrepanciesSheet, 1, toAny(discrepancyHeaders)); err != nil {
		return err
	}

	row, drow := 2, 2
	for _, it := range items {
		doc := it.File.Name
		if doc == "" {
			doc = filepath.Base(it.Assessment.Document)
		}
		if it.Err != nil {
			vals := make([]any, len(summaryHeaders))
			vals[1] = it.File.LoanID
			vals[2] = doc
			vals[len(vals)-1] = it.Err.Error()
			if err := writeRow(f, SummarySheet, row, vals); err != nil {
				return err
			}
			row++
			continue
		}

		a := it.Assessment
		r := a.Result
		if err := writeRow(f, SummarySheet, row, []any{
			a.ID,
			a.LoanID,
			doc,
			string(a.Mode),
			string(r.Verdict),
			r.RiskScore,
			string(r.RiskCategory),
			r.ConfidencePercent,
			yesNo(a.AutoApprove),
			len(r.Discrepancies),
			strings.Join(r.Recommendations, "\n"),
			"",
		}); err != nil {
			return err
		}
		row++

		for _, d := range r.Discrepancies {
			if err := writeRow(f, DiscrepanciesSheet, drow, []any{
				a.ID, a.LoanID, doc, string(d.Kind), d.Description, d.Expected, d.Actual,
			}); err != nil {
				return err
			}
			drow++
		}
	}

	if err := writeOverview(f, info, items); err != nil {
		return err
	}

	_ = f.SetColWidth(SummarySheet, "A", "A", 38)
	_ = f.SetColWidth(SummarySheet, "B", "B", 14)
	_ = f.SetColWidth(SummarySheet, "C", "C", 32)
	_ = f.SetColWidth(SummarySheet, "K", "K", 60)
	_ = f.SetColWidth(DiscrepanciesSheet, "A", "A", 38)
	_ = f.SetColWidth(DiscrepanciesSheet, "E", "E", 60)
	_ = f.SetColWidth(DiscrepanciesSheet, "F", "G", 24)
	_ = f.SetColWidth(OverviewSheet, "A", "B", 24)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, info Info, items []assess.Item) error {
	sum := assess.Summarize(items)
	generated := ""
	if !info.GeneratedAt.IsZero() {
		generated = info.GeneratedAt.UTC().Format(time.RFC3339)
	}
	rows := [][]any{
		{"Lender", info.Lender},
		{"Branch", info.Branch},
		{"Generated", generated},
		{"Documents", sum.Total},
		{"Failed", sum.Failed},
		{"Auto-approved", sum.AutoApprove},
	}
	for i, vals := range rows {
		if err := writeRow(f, OverviewSheet, i+1, vals); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
