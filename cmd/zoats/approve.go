package main

import (
	"github.com/spf13/cobra"

	"github.com/vrijenattawar/ZoATS/internal/clarify"
)

var (
	approveRequestID string
	approveAction    string
	approveQuestions []string
	approveFeedback  string
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Record the employer's decision on an approval request",
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

		_, err = env.Workflow.RecordDecision(cmd.Context(), flagJob, approveRequestID, approveAction, approveQuestions, approveFeedback, flagDryRun)
		return err
	},
}

func init() {
	approveCmd.Flags().StringVar(&approveRequestID, "request", "", "approval request id")
	approveCmd.Flags().StringVar(&approveAction, "action", clarify.ActionApprove, "approve, modify, or reject")
	approveCmd.Flags().StringArrayVar(&approveQuestions, "question", nil, "replacement question (repeatable, required for modify)")
	approveCmd.Flags().StringVar(&approveFeedback, "feedback", "", "employer feedback (for reject)")
	_ = approveCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(approveCmd)
}
