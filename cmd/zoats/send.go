package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch queued clarification emails",
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

		report, err := env.Workflow.ProcessSendQueue(cmd.Context(), flagJob, flagDryRun)
		if err != nil {
			return err
		}
		zap.L().Info("send queue processed",
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
