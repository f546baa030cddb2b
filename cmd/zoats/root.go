package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

var cfg *config.Config

var (
	flagJob       string
	flagCandidate string
	flagDryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "zoats",
	Short: "Candidate decision pipeline",
	Long:  "Screens applicants through a quick-test gate and a gestalt decision engine, routes MAYBEs through an employer-approved clarification loop, and parks over-questioned candidates on a backup list.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagJob, "job", "", "job id under the jobs directory")
	rootCmd.PersistentFlags().StringVar(&flagCandidate, "candidate", "", "candidate id within the job")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "plan actions without writing or sending")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Missing job/candidate directories are an operator addressing error,
		// distinguished from pipeline failures for scripting.
		if eris.Is(err, store.ErrNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func requireJob() error {
	if flagJob == "" {
		return eris.New("cmd: --job is required")
	}
	return nil
}

func requireCandidate() error {
	if err := requireJob(); err != nil {
		return err
	}
	if flagCandidate == "" {
		return eris.New("cmd: --candidate is required")
	}
	return nil
}
