package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var quicktestCmd = &cobra.Command{
	Use:   "quicktest",
	Short: "Run the pre-screen gate for a candidate",
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

		resume, err := env.Store.LoadResume(flagJob, flagCandidate)
		if err != nil {
			return err
		}
		rules, err := env.Store.LoadDealBreakers(flagJob)
		if err != nil {
			return err
		}

		result, err := env.Gate.Run(cmd.Context(), flagJob, flagCandidate, resume, rules)
		if err != nil {
			return err
		}
		if flagDryRun {
			zap.L().Info("dry run, result not written",
				zap.String("recommendation", string(result.Recommendation)),
				zap.String("reasoning", result.Reasoning))
			return nil
		}
		return env.Store.SaveQuickTest(flagJob, flagCandidate, result)
	},
}

func init() {
	rootCmd.AddCommand(quicktestCmd)
}
