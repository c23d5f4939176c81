package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinepick/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, TMDB, memory, and delivery readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if shouldColorize(out) {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, statusLabel(r.Passed), r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			} else {
				for _, r := range results {
					fmt.Fprintf(out, "%-4s %s: %s\n", statusLabel(r.Passed), r.Name, r.Detail)
				}
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("%d of %d checks failed: %s", len(failed), len(results), strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func statusLabel(passed bool) string {
	if passed {
		return "OK"
	}
	return "FAIL"
}
