package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/pipeline"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

var (
	pipelineFromInbox   bool
	pipelineConcurrency int
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full decision pipeline for every candidate",
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

		pcfg := cfg.Pipeline
		if pipelineConcurrency > 0 {
			pcfg.Concurrency = pipelineConcurrency
		}

		var runs *store.RunStore
		if !flagDryRun {
			runs, err = store.OpenRunStore(env.Store.JobDir(flagJob))
			if err != nil {
				return err
			}
			defer runs.Close()
			if err := runs.Migrate(cmd.Context()); err != nil {
				return err
			}
		}

		orch := pipeline.New(env.Store, env.Gate, env.Engine, env.Workflow, env.Backup, env.Dossier, env.Intake, runs, pcfg)
		summary, err := orch.Run(cmd.Context(), flagJob, pipeline.Options{
			FromInbox: pipelineFromInbox,
			DryRun:    flagDryRun,
			Candidate: flagCandidate,
		})
		if err != nil {
			return err
		}

		for decision, count := range summary.Summary.DecisionBreakdown {
			zap.L().Info("decision tally",
				zap.String("decision", string(decision)),
				zap.Int("count", count))
		}
		return nil
	},
}

func init() {
	pipelineCmd.Flags().BoolVar(&pipelineFromInbox, "from-inbox", false, "run intake before processing")
	pipelineCmd.Flags().IntVar(&pipelineConcurrency, "concurrency", 0, "parallel candidates (default from config)")
	rootCmd.AddCommand(pipelineCmd)
}
