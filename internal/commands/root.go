package commands

import (
	"github.com/spf13/cobra"

	"github.com/vindicatenyc/vindicate-app/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var caseDir string

	rootCmd := &cobra.Command{
		Use:     "vindicate",
		Short:   "Offer in Compromise and household budget analysis",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&caseDir, "dir", ".", "case directory")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newStandardsCommand(&caseDir))
	rootCmd.AddCommand(newBudgetCommand(&caseDir))
	rootCmd.AddCommand(newAnalyzeCommand(&caseDir))

	return rootCmd
}
