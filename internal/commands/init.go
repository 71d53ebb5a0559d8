package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vindicatenyc/vindicate-app/internal/chart"
	"github.com/vindicatenyc/vindicate-app/internal/config"
)

const (
	snapshotFile  = "snapshot.yaml"
	statementsDir = "statements"
	logsDir       = "logs"
	ledgerDir     = "ledger"
)

const sampleSnapshot = `# Monthly household figures for an Offer in Compromise evaluation.
gross_monthly_income: "0.00"
family_size: 1
members_over_65: 0
state: NY
tax_liability: "0.00"
expenses:
  - category: housing
    amount: "0.00"
  - category: health_insurance
    amount: "0.00"
debts: []
assets:
  - kind: bank_account
    description: Checking
    fair_market_value: "0.00"
    loan_balance: "0.00"
    liquid: true
`

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new case directory",
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

			return runInit(cmd.OutOrStdout(), absDir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing case")

	return cmd
}

func runInit(out io.Writer, dir string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	for _, d := range []string{statementsDir, logsDir, ledgerDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, snapshotFile), []byte(sampleSnapshot), 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	if err := chart.Default().Save(dir); err != nil {
		return fmt.Errorf("writing category chart: %w", err)
	}

	gitignore := ".env\n" + ledgerDir + "/\n" + logsDir + "/\n" + statementsDir + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized case at %s\n", dir)
	return nil
}
