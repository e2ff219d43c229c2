package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/loanguard/billcheck/internal/assess"
	"github.com/loanguard/billcheck/internal/auditlog"
	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/report"
)

func newBatchCommand(opts *globalOptions) *cobra.Command {
	var repoDir string
	var xlsxPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Assess every document in the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			return runBatch(cmd, e, xlsxPath, dryRun)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an XLSX report to this path")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "assess without writing the audit log or moving files")

	return cmd
}

func runBatch(cmd *cobra.Command, e *env, xlsxPath string, dryRun bool) error {
	out := cmd.OutOrStdout()

	files, err := bills.Scan(e.repo)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No documents in inbox.")
		return nil
	}

	items, err := e.service.Batch(cmd.Context(), files)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	if name := lenderLine(e.cfg.Lender.Name, e.cfg.Lender.Branch); name != "" {
		fmt.Fprintf(out, "Lender: %s\n\n", name)
	}
	if err := printItems(out, items); err != nil {
		return err
	}

	if xlsxPath != "" {
		info := report.Info{
			Lender:      e.cfg.Lender.Name,
			Branch:      e.cfg.Lender.Branch,
			GeneratedAt: time.Now(),
		}
		if err := writeReport(xlsxPath, info, items); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", xlsxPath)
	}

	if dryRun {
		fmt.Fprintln(out, "Dry run: audit log and inbox left unchanged.")
		return nil
	}

	var entries []auditlog.Entry
	for _, it := range items {
		if it.Err != nil {
			continue
		}
		entries = append(entries, auditlog.FromAssessment(it.Assessment))
	}
	logPath := e.cfg.Batch.AuditLog
	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(e.repo, logPath)
	}
	if err := auditlog.Append(logPath, entries); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	for _, it := range items {
		if it.Err != nil {
			continue
		}
		if err := bills.MarkProcessed(e.repo, it.File.Name); err != nil {
			return err
		}
	}
	return nil
}

func printItems(w io.Writer, items []assess.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLOAN\tMODE\tVERDICT\tSCORE\tCATEGORY\tAUTO")
	for _, it := range items {
		if it.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t-\terror\t-\t-\t-\n", it.File.Name, it.File.LoanID)
			continue
		}
		a := it.Assessment
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			it.File.Name, a.LoanID, a.Mode, a.Result.Verdict,
			a.Result.RiskScore, a.Result.RiskCategory, yesNo(a.AutoApprove))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := assess.Summarize(items)
	fmt.Fprintf(w, "\n%d documents: %d green, %d amber, %d red, %d failed, %d auto-approved\n",
		sum.Total,
		sum.ByCategory[model.CategoryGreen],
		sum.ByCategory[model.CategoryAmber],
		sum.ByCategory[model.CategoryRed],
		sum.Failed,
		sum.AutoApprove)
	for _, it := range items {
		if it.Err != nil {
			fmt.Fprintf(w, "  %s: %v\n", it.File.Name, it.Err)
		}
	}
	return nil
}

func lenderLine(name, branch string) string {
	switch {
	case name == "":
		return ""
	case branch == "":
		return name
	default:
		return name + ", " + branch
	}
}

func writeReport(path string, info report.Info, items []assess.Item) error {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, info, items); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
