package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var clarifyCmd = &cobra.Command{
	Use:   "clarify",
	Short: "Create an approval request for a MAYBE candidate's questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCandidate(); err != nil {
			return err
		}
		env, err := initEnv()
		if err != nil {
			return err
		}
		if err := env.Store.RequireCandidate(flagJob, flagCandidate); err != nil {
			return err
		}
		req, err := env.Workflow.Initiate(cmd.Context(), flagJob, flagCandidate, flagDryRun)
		if err != nil {
			return err
		}
		zap.L().Info("clarification initiated",
			zap.String("request_id", req.RequestID),
			zap.Strings("questions", req.Questions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clarifyCmd)
}
