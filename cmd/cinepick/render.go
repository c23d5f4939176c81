package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"cinepick/internal/delivery"
	"cinepick/internal/movie"
	"cinepick/internal/recommend"
)

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// recommendationView is the --json shape of a pipeline result.
type recommendationView struct {
	Query    string            `json:"query"`
	Strategy string            `json:"strategy"`
	Pick     movie.Candidate   `json:"pick"`
	Queue    []movie.Candidate `json:"queue"`
}

func newRecommendationView(query string, result recommend.Result) recommendationView {
	queue := result.Queue
	if queue == nil {
		queue = []movie.Candidate{}
	}
	return recommendationView{
		Query:    query,
		Strategy: string(result.Strategy),
		Pick:     result.Head,
		Queue:    queue,
	}
}

// renderResult writes the pick and its alternates. Terminals get a table,
// everything else gets tab-separated lines.
func renderResult(out io.Writer, result recommend.Result, limit int) {
	head := result.Head
	fmt.Fprintf(out, "Pick: %s\n", head.Label())
	fmt.Fprintf(out, "Rating: %.1f/10 (%d votes)\n", head.Rating, head.VoteCount)
	if genres := head.GenreList(); genres != "" {
		fmt.Fprintf(out, "Genres: %s\n", genres)
	}
	if head.RuntimeMinutes > 0 {
		fmt.Fprintf(out, "Runtime: %d min\n", head.RuntimeMinutes)
	}
	fmt.Fprintf(out, "Overview: %s\n", delivery.Overview(head))
	if head.PosterURL != "" {
		fmt.Fprintf(out, "Poster: %s\n", head.PosterURL)
	}
	if head.TrailerURL != "" {
		fmt.Fprintf(out, "Trailer: %s\n", head.TrailerURL)
	}
	fmt.Fprintf(out, "Strategy: %s\n", result.Strategy)

	queue := result.Queue
	if limit >= 0 && len(queue) > limit {
		queue = queue[:limit]
	}
	if len(queue) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Alternates:")
	if shouldColorize(out) {
		fmt.Fprintln(out, renderTable(
			[]string{"#", "ID", "Title", "Year", "Rating", "Votes"},
			alternateRows(queue),
			[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight},
		))
		return
	}
	for _, row := range alternateRows(queue) {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

func alternateRows(queue []movie.Candidate) [][]string {
	rows := make([][]string, 0, len(queue))
	for i, c := range queue {
		year := "-"
		if y := c.Year(); y > 0 {
			year = strconv.Itoa(y)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(c.ID, 10),
			c.Title,
			year,
			strconv.FormatFloat(c.Rating, 'f', 1, 64),
			strconv.FormatInt(c.VoteCount, 10),
		})
	}
	return rows
}
