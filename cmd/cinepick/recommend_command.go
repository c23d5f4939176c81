package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinepick/internal/classify"
	"cinepick/internal/delivery"
	"cinepick/internal/recommend"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var (
		userID  string
		exclude []int64
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <request...>",
		Short: "Run the recommendation pipeline once and print the pick",
		Example: `  cinepick recommend crime movies
  cinepick recommend "films with Brad Pitt" --user alice
  cinepick recommend christmas movie --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("request text is required")
			}

			app, err := newApplicationFromContext(cmd.Context(), ctx, delivery.Noop{})
			if err != nil {
				return err
			}
			defer app.Close()

			req := recommend.Request{
				Query:    query,
				UserID:   strings.TrimSpace(userID),
				Excluded: recommend.ExcludedSet(exclude...),
			}
			result, err := app.pipeline.Recommend(cmd.Context(), req)
			if errors.Is(err, recommend.ErrNoResult) && !classify.IsHoliday(query) {
				result, err = app.pipeline.Fallback(cmd.Context(), req)
			}
			if err != nil {
				if errors.Is(err, recommend.ErrNoResult) {
					return fmt.Errorf("%w for %q", recommend.ErrNoResult, query)
				}
				return fmt.Errorf("recommend: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, newRecommendationView(query, result))
			}
			renderResult(cmd.OutOrStdout(), result, limit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id whose memory filters and ranks the results")
	cmd.Flags().Int64SliceVar(&exclude, "exclude", nil, "TMDB ids to leave out")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of alternates to list (-1 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}
