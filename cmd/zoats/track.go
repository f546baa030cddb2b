package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Poll the inbox for clarification responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireJob(); err != nil {
			return err
		}
		env, err := initEnv()
		if err != nil {
			return err
		}
		if err := env.Store.RequireJob(flagJob); err != nil {
			return err
		}

		report, err := env.Workflow.TrackResponses(cmd.Context(), flagJob, cfg.Inbox.MaxMessages, flagDryRun)
		if err != nil {
			return err
		}
		zap.L().Info("tracking done",
			zap.Int("checked", report.Checked),
			zap.Int("matched", report.Matched))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
