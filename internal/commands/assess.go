package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/loanguard/billcheck/internal/assess"
	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/model"
)

// assessmentOutput is the JSON printed by score and compare.
type assessmentOutput struct {
	ID          string       `json:"id"`
	LoanID      string       `json:"loan_id,omitempty"`
	Document    string       `json:"document"`
	AssessedAt  time.Time    `json:"assessed_at"`
	Fields      model.Fields `json:"extracted_fields,omitempty"`
	AutoApprove bool         `json:"auto_approve"`
	model.Result
}

func newAssessmentOutput(a assess.Assessment) assessmentOutput {
	return assessmentOutput{
		ID:          a.ID,
		LoanID:      a.LoanID,
		Document:    a.Document,
		AssessedAt:  a.AssessedAt,
		Fields:      a.Fields,
		AutoApprove: a.AutoApprove,
		Result:      a.Result,
	}
}

// extractedField is one field of the extract output, listed in extraction
// order whether or not it was found.
type extractedField struct {
	Name  model.Field `json:"name"`
	Value string      `json:"value,omitempty"`
	Found bool        `json:"found"`
}

func orderedFields(fields model.Fields) []extractedField {
	out := make([]extractedField, 0, len(model.AllFields))
	for _, f := range model.AllFields {
		v, ok := fields.Get(f)
		out = append(out, extractedField{Name: f, Value: v, Found: ok})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExtractCommand(opts *globalOptions) *cobra.Command {
	var repoDir string
	var showText bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Recognize a document and print the extracted fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			res, err := e.service.Recognize(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("recognizing %s: %w", args[0], err)
			}
			a, err := e.service.AssessText(cmd.Context(), res.Text, "")
			if err != nil {
				return err
			}

			out := struct {
				Document string           `json:"document"`
				Source   string           `json:"source"`
				Pages    int              `json:"pages,omitempty"`
				Fields   []extractedField `json:"fields"`
				Text     string           `json:"text,omitempty"`
			}{
				Document: args[0],
				Source:   res.Source,
				Pages:    res.Pages,
				Fields:   orderedFields(a.Fields),
			}
			if showText {
				out.Text = res.Text
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().BoolVar(&showText, "text", false, "include the recognized text")

	return cmd
}

func newScoreCommand(opts *globalOptions) *cobra.Command {
	var repoDir string
	var loanID string

	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Score a scanned or text bill against its loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			if loanID == "" {
				loanID = bills.LoanIDFromName(args[0])
			}
			a, err := e.service.AssessDocument(cmd.Context(), args[0], loanID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newAssessmentOutput(a))
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&loanID, "loan", "", "loan ID (default taken from the file name)")

	return cmd
}

func newCompareCommand(opts *globalOptions) *cobra.Command {
	var repoDir string
	var loanID string

	cmd := &cobra.Command{
		Use:   "compare <bill.json|bill.csv>",
		Short: "Compare an itemized bill with the loan's sanctioned items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			bill, err := e.service.ParseBill(args[0])
			if err != nil {
				return err
			}
			a, err := e.service.AssessItemized(cmd.Context(), bill, loanID)
			if err != nil {
				return err
			}
			a.Document = args[0]
			return writeJSON(cmd.OutOrStdout(), newAssessmentOutput(a))
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&loanID, "loan", "", "loan ID (required)")
	_ = cmd.MarkFlagRequired("loan")

	return cmd
}
