package commands

import (
	"github.com/spf13/cobra"

	"github.com/crucial707/asset-audit/cmd/cli/root"
)

// ==========================
// RUN
// ==========================
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one audit and write the report",
		Long: "Fetch the inventory once, classify every asset and write the summary report.\n" +
			"Any fetch or validation failure exits non-zero and writes no report.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.LoadConfig()
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.auditor.Run(cmd.Context())
			return err
		},
	}
}
