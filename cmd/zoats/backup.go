package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backupParkedOnly bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage the job's backup list",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show backup-list entries",
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

		list, err := env.Backup.List(flagJob, backupParkedOnly)
		if err != nil {
			return err
		}
		for _, entry := range list.Candidates {
			zap.L().Info("backup entry",
				zap.String("candidate_id", entry.CandidateID),
				zap.String("status", string(entry.Status)),
				zap.String("reason", entry.Reason),
				zap.Strings("concerns", entry.Concerns))
		}
		zap.L().Info("backup list", zap.Int("count", list.Count))
		return nil
	},
}

var backupPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a parked candidate back to active consideration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCandidate(); err != nil {
			return err
		}
		env, err := initEnv()
		if err != nil {
			return err
		}
		if err := env.Store.RequireJob(flagJob); err != nil {
			return err
		}

		_, err = env.Backup.Promote(flagJob, flagCandidate)
		return err
	},
}

func init() {
	backupListCmd.Flags().BoolVar(&backupParkedOnly, "parked", false, "only entries still parked")
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupPromoteCmd)
	rootCmd.AddCommand(backupCmd)
}
