package agenttools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"cinepick/internal/classify"
	"cinepick/internal/memory"
	"cinepick/internal/movie"
	"cinepick/internal/tmdb"
)

type movieItem struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Year       int     `json:"year,omitempty"`
	Rating     float64 `json:"rating"`
	VoteCount  int64   `json:"vote_count"`
	Popularity float64 `json:"popularity"`
	Overview   string  `json:"overview,omitempty"`
}

type personItem struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department,omitempty"`
	Popularity         float64 `json:"popularity"`
}

type detailItem struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year,omitempty"`
	Rating         float64  `json:"rating"`
	VoteCount      int64    `json:"vote_count"`
	Overview       string   `json:"overview"`
	PosterURL      string   `json:"poster_url"`
	TrailerURL     string   `json:"trailer_url"`
	Genres         []string `json:"genres"`
	RuntimeMinutes int      `json:"runtime"`
}

func toMovieItem(c movie.Candidate, withOverview bool) movieItem {
	item := movieItem{
		ID:         c.ID,
		Title:      c.Title,
		Year:       c.Year(),
		Rating:     c.Rating,
		VoteCount:  c.VoteCount,
		Popularity: c.Popularity,
	}
	if withOverview {
		item.Overview = truncate(c.Overview, maxOverviewRunes)
	}
	return item
}

func movieItems(candidates []movie.Candidate, withOverview bool) []movieItem {
	if len(candidates) > maxListResults {
		candidates = candidates[:maxListResults]
	}
	out := make([]movieItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, toMovieItem(c, withOverview))
	}
	return out
}

func (t *Toolkit) handleSearchMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	page, err := t.catalog.SearchMovies(ctx, strings.TrimSpace(query))
	if err != nil {
		return t.upstreamError(ToolSearchMovies, err), nil
	}
	if page == nil || len(page.Results) == 0 {
		return mcp.NewToolResultText("No movies found."), nil
	}
	items := movieItems(tmdb.Candidates(page.Results), true)
	return jsonResult(fmt.Sprintf("Found %d movies:", len(items)), map[string]any{"movies": items})
}

func (t *Toolkit) handleSearchPerson(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	page, err := t.catalog.SearchPerson(ctx, name)
	if err != nil {
		return t.upstreamError(ToolSearchPerson, err), nil
	}
	if page == nil || len(page.Results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No people found matching '%s'.", name)), nil
	}
	results := page.Results
	if len(results) > maxPeople {
		results = results[:maxPeople]
	}
	people := make([]personItem, 0, len(results))
	for _, p := range results {
		people = append(people, personItem{
			ID:                 p.ID,
			Name:               p.Name,
			KnownForDepartment: p.KnownForDepartment,
			Popularity:         p.Popularity,
		})
	}
	return jsonResult(fmt.Sprintf("Found %d people:", len(people)), map[string]any{"people": people})
}

func (t *Toolkit) handleGetPersonMovies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	personID, err := req.RequireInt("person_id")
	if err != nil || personID <= 0 {
		return mcp.NewToolResultError("person_id must be a positive integer"), nil
	}
	department := strings.ToLower(strings.TrimSpace(req.GetString("department", defaultDepartment)))
	if department != "cast" && department != "crew" {
		return mcp.NewToolResultError("department must be cast or crew"), nil
	}

	credits, err := t.catalog.PersonMovieCredits(ctx, int64(personID))
	if err != nil {
		return t.upstreamError(ToolGetPersonMovies, err), nil
	}
	var entries []tmdb.Credit
	if credits != nil {
		entries = credits.Cast
		if department == "crew" {
			entries = credits.Crew
		}
	}

	rules := t.pipeline.Rules()
	seen := make(map[int64]struct{}, len(entries))
	filtered := make([]movie.Candidate, 0, len(entries))
	for _, credit := range entries {
		c := credit.Movie.Candidate()
		if c.ID <= 0 || c.Rating < rules.MinRating || c.VoteCount < rules.MinVotes {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No high-rated popular movies found (%s).", department)), nil
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Popularity != filtered[j].Popularity {
			return filtered[i].Popularity > filtered[j].Popularity
		}
		return filtered[i].Rating > filtered[j].Rating
	})
	items := movieItems(filtered, false)
	header := fmt.Sprintf("Found %d movies (%s). Use these exact ids in your answer:", len(items), department)
	return jsonResult(header, map[string]any{"movies": items})
}

func (t *Toolkit) handleDiscoverByGenre(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var genres []int
	for _, id := range req.GetIntSlice("genre_ids", nil) {
		if id > 0 {
			genres = append(genres, id)
		}
	}
	if len(genres) == 0 {
		return mcp.NewToolResultError("genre_ids required"), nil
	}
	if len(genres) > maxGenreIDs {
		genres = genres[:maxGenreIDs]
	}
	found := t.pipeline.Discover(ctx, genres, nil)
	if len(found) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No movies found for genres %s.", genreLabel(genres))), nil
	}
	items := movieItems(found, false)
	return jsonResult(fmt.Sprintf("Found %d trending movies (genres: %s):", len(items), genreLabel(genres)), map[string]any{"movies": items})
}

// genreLabel names genre ids for tool output, keeping the id when unknown.
func genreLabel(ids []int) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := classify.GenreName(id); name != "" {
			names = append(names, name)
			continue
		}
		names = append(names, fmt.Sprintf("%d", id))
	}
	return strings.Join(names, ", ")
}

func (t *Toolkit) handleGetMovieDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	movieID, err := req.RequireInt("movie_id")
	if err != nil || movieID <= 0 {
		return mcp.NewToolResultError("movie_id must be a positive integer"), nil
	}
	details, err := t.pipeline.Details().Fetch(ctx, int64(movieID), "")
	if err != nil {
		return t.upstreamError(ToolGetMovieDetails, err), nil
	}
	item := detailItem{
		ID:             details.ID,
		Title:          details.Title,
		Year:           details.Year(),
		Rating:         details.Rating,
		VoteCount:      details.VoteCount,
		Overview:       details.Overview,
		PosterURL:      details.PosterURL,
		TrailerURL:     details.TrailerURL,
		Genres:         append([]string{}, details.Genres...),
		RuntimeMinutes: details.RuntimeMinutes,
	}
	return jsonResult("Movie details (JSON):", item)
}

func (t *Toolkit) memoryReady() bool {
	return t.memory != nil && t.userID != ""
}

func (t *Toolkit) handleGetUserMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.memoryReady() {
		return mcp.NewToolResultError("memory is not configured"), nil
	}
	entries, ok := t.memory.Recall(ctx, t.userID, req.GetString("query", ""), maxMemories)
	if !ok {
		return mcp.NewToolResultError("memory lookup failed"), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No memories found."), nil
	}
	var b strings.Builder
	b.WriteString("User memories:\n")
	for _, e := range entries {
		b.WriteString("\n- ")
		b.WriteString(e.Text)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Toolkit) handleSaveWatchedFilm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.memoryReady() {
		return mcp.NewToolResultError("memory is not configured"), nil
	}
	title, err := req.RequireString("film_title")
	title = strings.TrimSpace(title)
	if err != nil || title == "" {
		return mcp.NewToolResultError("film_title is required"), nil
	}
	rating := req.GetInt("rating", 0)
	if rating < 0 || rating > 10 {
		return mcp.NewToolResultError("rating must be between 1 and 10"), nil
	}

	text := fmt.Sprintf("User already watched film: %s", title)
	if id := req.GetInt("film_id", 0); id > 0 {
		text = memory.WatchedText(title, int64(id))
	}
	if rating > 0 {
		text += fmt.Sprintf(". User rating: %d/10", rating)
	}
	if notes := strings.TrimSpace(req.GetString("notes", "")); notes != "" {
		text += ". Notes: " + notes
	}
	if !t.memory.Remember(ctx, t.userID, text) {
		return mcp.NewToolResultError("failed to save watched film"), nil
	}
	return mcp.NewToolResultText("Saved: " + title), nil
}

func (t *Toolkit) handleSaveUserPreference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.memoryReady() {
		return mcp.NewToolResultError("memory is not configured"), nil
	}
	preference, err := req.RequireString("preference")
	preference = strings.TrimSpace(preference)
	if err != nil || preference == "" {
		return mcp.NewToolResultError("preference is required"), nil
	}
	if !t.memory.Remember(ctx, t.userID, "User preference: "+preference) {
		return mcp.NewToolResultError("failed to save preference"), nil
	}
	return mcp.NewToolResultText("Preference saved: " + preference), nil
}
