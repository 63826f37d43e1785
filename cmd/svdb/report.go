package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"svdb/internal/report"
	"svdb/internal/store"
)

func newReportCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print summary statistics for the whole database",
		Long:  "Query the database and print sample, gene, transcript and SV statistics without importing anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("db")
			if _, err := os.Stat(dbPath); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("database %s not found, create it first with --create", dbPath)
				}
				return fmt.Errorf("stat database: %w", err)
			}

			s, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			r := report.New(os.Stdout)
			if top > 0 {
				r.SetTopLimit(top)
			} else {
				r.SetTopLimit(viper.GetInt("report.top"))
			}
			return r.Report(s)
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "entries shown in top-N sections (default from config)")

	return cmd
}
