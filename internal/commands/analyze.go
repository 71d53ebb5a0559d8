package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vindicatenyc/vindicate-app/internal/analysis"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

func newAnalyzeCommand(caseDir *string) *cobra.Command {
	var flags budgetFlags

	cmd := &cobra.Command{
		Use:   "analyze [snapshot.yaml]",
		Short: "Evaluate Offer in Compromise eligibility for a household",
		Long: "Evaluate a financial snapshot against the IRS collection standards.\n" +
			"With --statements, expenses and income the snapshot leaves out are\n" +
			"filled from the statements' budget first.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openCase(cmd, *caseDir)
			if err != nil {
				return err
			}
			path := snapshotFile
			if len(args) > 0 {
				path = args[0]
			}
			snap, err := readSnapshot(env.path(path))
			if err != nil {
				return err
			}
			return runAnalyze(cmd, env, flags, snap)
		},
	}
	flags.register(cmd, "")

	return cmd
}

func readSnapshot(path string) (model.FinancialSnapshot, error) {
	var snap model.FinancialSnapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parsing snapshot: %w", err)
	}
	return snap, nil
}

func runAnalyze(cmd *cobra.Command, env *caseEnv, flags budgetFlags, snap model.FinancialSnapshot) (err error) {
	p, err := env.pipeline()
	if err != nil {
		return err
	}

	trail := env.newTrail()
	defer func() { err = env.finish(trail, flags.auditPath, err) }()

	var docs []model.Document
	if flags.statements != "" {
		if docs, err = env.registry.Scan(env.path(flags.statements)); err != nil {
			return err
		}
	}

	report, err := p.Evaluate(env.ctx, trail, snap, docs)
	if analysis.Cancelled(err) {
		return errors.Join(err, writeJSON(cmd.OutOrStdout(), report))
	}
	if err != nil {
		return err
	}
	var br analysis.BudgetReport
	if report.Budget != nil {
		br = *report.Budget
	}
	if err := afterBudget(env, flags, br); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), report)
}
