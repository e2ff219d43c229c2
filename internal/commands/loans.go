package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loanguard/billcheck/internal/loans"
)

func newLoansCommand(opts *globalOptions) *cobra.Command {
	loansCmd := &cobra.Command{
		Use:   "loans",
		Short: "Loan record operations",
	}
	loansCmd.AddCommand(newLoansImportCommand(opts))
	return loansCmd
}

func newLoansImportCommand(opts *globalOptions) *cobra.Command {
	var repoDir string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the CSV loan records into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			src, err := loans.Load(absDir)
			if err != nil {
				return err
			}

			db, err := loans.OpenSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("opening loan database: %w", err)
			}
			defer db.Close()

			n, err := db.PutAll(cmd.Context(), src.All())
			if err != nil {
				return err
			}
			if opts.logger != nil {
				opts.logger.Info("loans.import.ok", "loans", n, "db", dbPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d loans into %s\n", n, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
