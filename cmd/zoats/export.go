package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrijenattawar/ZoATS/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the decision roster to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireJob(); err != nil {
			return err
		}
		env, err := initEnv()
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("%s-roster.xlsx", flagJob)
		}
		_, err = export.NewExporter(env.Store).Export(flagJob, out)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default <job>-roster.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
