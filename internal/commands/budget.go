package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vindicatenyc/vindicate-app/internal/analysis"
	"github.com/vindicatenyc/vindicate-app/internal/ledger"
	"github.com/vindicatenyc/vindicate-app/internal/metrics"
	"github.com/vindicatenyc/vindicate-app/internal/reader"
)

// budgetFlags are shared by budget and analyze.
type budgetFlags struct {
	statements  string
	auditPath   string
	metricsPath string
	writeLedger bool
	archive     bool
}

func (f *budgetFlags) register(cmd *cobra.Command, statementsDefault string) {
	cmd.Flags().StringVar(&f.statements, "statements", statementsDefault, "statements directory")
	cmd.Flags().StringVar(&f.auditPath, "audit", filepath.Join(logsDir, "audit.csv"), "audit log to append to (empty to skip)")
	cmd.Flags().StringVar(&f.metricsPath, "metrics", "", "write a Prometheus textfile here")
	cmd.Flags().BoolVar(&f.writeLedger, "ledger", false, "write classified transactions to the monthly ledger")
	cmd.Flags().BoolVar(&f.archive, "archive", false, "move processed statements to statements/processed")
}

func newBudgetCommand(caseDir *string) *cobra.Command {
	var flags budgetFlags

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Extract, classify and summarize bank statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openCase(cmd, *caseDir)
			if err != nil {
				return err
			}
			return runBudget(cmd, env, flags)
		},
	}
	flags.register(cmd, statementsDir)

	return cmd
}

func runBudget(cmd *cobra.Command, env *caseEnv, flags budgetFlags) (err error) {
	p, err := env.pipeline()
	if err != nil {
		return err
	}

	trail := env.newTrail()
	defer func() { err = env.finish(trail, flags.auditPath, err) }()

	dir := env.path(flags.statements)
	docs, err := env.registry.Scan(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no statements found in %s", dir)
	}

	report, err := p.Budget(env.ctx, trail, docs)
	if analysis.Cancelled(err) {
		return errors.Join(err, writeJSON(cmd.OutOrStdout(), report))
	}
	if err != nil {
		return err
	}
	if err := afterBudget(env, flags, report); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), report)
}

// afterBudget persists what a finished budget run produced.
func afterBudget(env *caseEnv, flags budgetFlags, report analysis.BudgetReport) error {
	if flags.writeLedger {
		paths, err := ledger.NewStore(env.path(ledgerDir)).WriteMonths(report.Transactions)
		if err != nil {
			return err
		}
		env.log.Info().Strs("files", paths).Msg("ledger written")
	}
	if flags.metricsPath != "" {
		if err := metrics.WriteTextfile(env.path(flags.metricsPath), env.gatherer); err != nil {
			return err
		}
	}
	if flags.archive {
		dir := env.path(flags.statements)
		for _, d := range report.Documents {
			if d.Status != "ok" {
				continue
			}
			if err := reader.MarkProcessed(dir, d.Document); err != nil {
				return err
			}
		}
	}
	return nil
}
