package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crucial707/asset-audit/cmd/cli/root"
	"github.com/crucial707/asset-audit/internal/scheduler"
)

// ==========================
// SCHEDULE
// ==========================
func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run audits on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.LoadConfig()
			if err != nil {
				return err
			}
			if _, err := scheduler.Parse(cfg.Cron); err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			if viper.GetBool("now") {
				if _, err := s.auditor.Run(cmd.Context()); err != nil {
					slog.Error("audit run failed", "error", err)
				}
			}
			return scheduler.Run(cmd.Context(), cfg.Cron, func(ctx context.Context) error {
				_, err := s.auditor.Run(ctx)
				return err
			})
		},
	}

	cmd.Flags().String("cron", "", "cron expression or descriptor such as @hourly")
	cmd.Flags().Bool("now", false, "run once immediately before the first tick")
	_ = viper.BindPFlag("cron", cmd.Flags().Lookup("cron"))
	_ = viper.BindPFlag("now", cmd.Flags().Lookup("now"))

	return cmd
}
