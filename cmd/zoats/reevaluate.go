package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reevalForce bool

var reevaluateCmd = &cobra.Command{
	Use:   "reevaluate",
	Short: "Re-run the decision engine with the clarification response",
	Long:  "With --candidate, re-evaluates that candidate directly. Without it, drains the pending re-evaluation queue for the job.",
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

		if flagCandidate == "" {
			report, err := env.Workflow.ProcessReevaluations(cmd.Context(), flagJob, flagDryRun)
			if err != nil {
				return err
			}
			zap.L().Info("queue drained",
				zap.Int("completed", report.Completed),
				zap.Int("failed", report.Failed))
			return nil
		}

		if err := env.Store.RequireCandidate(flagJob, flagCandidate); err != nil {
			return err
		}
		comparison, err := env.Workflow.Reevaluate(cmd.Context(), flagJob, flagCandidate, reevalForce, flagDryRun)
		if err != nil {
			return err
		}
		zap.L().Info("re-evaluation recorded",
			zap.String("original", string(comparison.OriginalDecision)),
			zap.String("new", string(comparison.NewDecision)),
			zap.Bool("effective", comparison.ClarificationEffective))
		return nil
	},
}

func init() {
	reevaluateCmd.Flags().BoolVar(&reevalForce, "force", false, "re-evaluate even when the current decision is not MAYBE")
	rootCmd.AddCommand(reevaluateCmd)
}
