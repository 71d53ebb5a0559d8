package commands

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

// standardsReport is the standards lookup for one household.
type standardsReport struct {
	Version        string                           `json:"version"`
	State          string                           `json:"state"`
	FamilySize     int                              `json:"family_size"`
	National       decimal.Decimal                  `json:"national"`
	Housing        decimal.Decimal                  `json:"housing"`
	Healthcare     decimal.Decimal                  `json:"healthcare"`
	Transportation standards.TransportationStandard `json:"transportation"`
}

func newStandardsCommand(caseDir *string) *cobra.Command {
	var (
		state    string
		family   int
		over65   int
		vehicles int
		version  string
	)

	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Print the IRS collection standards for a household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openCase(cmd, *caseDir)
			if err != nil {
				return err
			}
			if version == "" {
				version = env.cfg.Standards.Version
			}
			table, err := standards.Load(version)
			if err != nil {
				return err
			}

			report := standardsReport{Version: table.Version(), State: state, FamilySize: family}
			if report.National, err = table.National(family); err != nil {
				return err
			}
			if report.Housing, err = table.Housing(state, family); err != nil {
				return err
			}
			if report.Healthcare, err = table.Healthcare(max(family-over65, 0), over65); err != nil {
				return err
			}
			if report.Transportation, err = table.Transportation(state, vehicles); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "two-letter state code (required)")
	_ = cmd.MarkFlagRequired("state")
	cmd.Flags().IntVar(&family, "family-size", 1, "household size")
	cmd.Flags().IntVar(&over65, "over-65", 0, "members aged 65 or older")
	cmd.Flags().IntVar(&vehicles, "vehicles", 0, "vehicles, 0 for public transit")
	cmd.Flags().StringVar(&version, "version", "", "standards release (default from config)")

	return cmd
}
