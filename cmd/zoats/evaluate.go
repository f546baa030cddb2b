package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the gestalt decision engine for a candidate",
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
		var rubric *model.Rubric
		if rubric, err = env.Store.LoadRubric(flagJob); err != nil {
			if !eris.Is(err, store.ErrNotFound) {
				return err
			}
			rubric = nil
		}

		eval, err := env.Engine.Evaluate(cmd.Context(), flagJob, flagCandidate, resume, rubric)
		if err != nil {
			return err
		}
		zap.L().Info("evaluation complete",
			zap.String("candidate_id", flagCandidate),
			zap.String("decision", string(eval.Decision)),
			zap.String("confidence", string(eval.Confidence)))
		if flagDryRun {
			return nil
		}
		return env.Store.SaveEvaluation(flagJob, flagCandidate, eval)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
