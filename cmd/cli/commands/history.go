package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/asset-audit/cmd/cli/output"
	"github.com/crucial707/asset-audit/cmd/cli/root"
	"github.com/crucial707/asset-audit/internal/logging"
	"github.com/crucial707/asset-audit/internal/models"
	"github.com/crucial707/asset-audit/internal/repo"
)

// ==========================
// HISTORY
// ==========================
func historyCmd() *cobra.Command {
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded audit runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("run history needs --db-url or AUDIT_DB_URL")
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)

			database, err := openHistory(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := repo.NewAuditRunRepo(database).List(cmd.Context(), limit, offset)
			if err != nil {
				return fmt.Errorf("list audit runs: %w", err)
			}
			return printRuns(cmd, runs, asJSON)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func printRuns(cmd *cobra.Command, runs []models.AuditRun, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		b, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No audit runs recorded.")
		return nil
	}

	rows := make([][]interface{}, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []interface{}{
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.ID, r.StatusCode, r.TotalAssets,
			r.High, r.Medium, r.Low, r.Exposed, r.HighPriority,
		})
	}
	output.RenderTable(out, "Audit Runs",
		[]string{"Created", "Run ID", "Status", "Assets", "High", "Medium", "Low", "Exposed", "High Priority"},
		rows)
	return nil
}
