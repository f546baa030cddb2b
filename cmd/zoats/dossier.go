package main

import (
	"github.com/spf13/cobra"
)

var dossierCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Render the candidate dossier from the evaluation",
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

		_, err = env.Dossier.Generate(flagJob, flagCandidate)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dossierCmd)
}
