package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/config"
	"github.com/loanguard/billcheck/internal/loans"
)

func newInitCommand() *cobra.Command {
	var lender string
	var branch string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new billcheck project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, lender, branch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized billcheck project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&lender, "lender", "", "lending institution name")
	cmd.Flags().StringVar(&branch, "branch", "", "branch or office")

	return cmd
}

func runInit(dir, lender, branch string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	// Create directory structure.
	dirs := []string{
		"loans",
		"logs",
		"reports",
		bills.InboxDir,
		bills.ProcessedDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write billcheck.yaml.
	cfg := config.Default(lender)
	cfg.Lender.Branch = branch
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write empty loan files with headers.
	if err := loans.NewService(nil).Save(dir); err != nil {
		return fmt.Errorf("writing loan files: %w", err)
	}

	// Write inbox/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, bills.InboxDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	return nil
}
