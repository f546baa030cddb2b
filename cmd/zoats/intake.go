package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Ingest resume bundles from the inbox-drop directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireJob(); err != nil {
			return err
		}
		env, err := initEnv()
		if err != nil {
			return err
		}

		report, err := env.Intake.Run(flagJob, flagDryRun)
		if err != nil {
			return err
		}
		zap.L().Info("intake done",
			zap.Strings("ingested", report.Ingested),
			zap.Int("skipped", report.Skipped),
			zap.Int("held", report.Held))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intakeCmd)
}
