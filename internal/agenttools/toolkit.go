// Package agenttools exposes the catalog and memory as MCP tools so a
// language-model agent can propose candidates. Every proposal it returns is
// re-verified by the recommendation pipeline before a session offers it.
package agenttools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cinepick/internal/logging"
	"cinepick/internal/memory"
	"cinepick/internal/metrics"
	"cinepick/internal/recommend"
	"cinepick/internal/tmdb"
)

// ServerName is the MCP server name advertised to clients.
const ServerName = "cinepick"

// Tool names.
const (
	ToolSearchMovies       = "search_movies"
	ToolSearchPerson       = "search_person"
	ToolGetPersonMovies    = "get_person_movies"
	ToolDiscoverByGenre    = "discover_movies_by_genre"
	ToolGetMovieDetails    = "get_movie_details"
	ToolGetUserMemories    = "get_user_memories"
	ToolSaveWatchedFilm    = "save_watched_film"
	ToolSaveUserPreference = "save_user_preference"
)

const (
	maxListResults    = 15
	maxPeople         = 5
	maxMemories       = 10
	maxGenreIDs       = 2
	maxOverviewRunes  = 200
	defaultDepartment = "cast"
)

// Deps holds the collaborators behind the tools.
type Deps struct {
	Catalog  tmdb.Catalog
	Pipeline *recommend.Recommender
	// Memory is optional; without it the memory tools report an error result.
	Memory *memory.Client
	// UserID scopes the memory tools.
	UserID string
	Logger *slog.Logger
}

// Toolkit implements the agent tools.
type Toolkit struct {
	catalog  tmdb.Catalog
	pipeline *recommend.Recommender
	memory   *memory.Client
	userID   string
	logger   *slog.Logger
}

// New builds a Toolkit. A nil pipeline gets a default one over deps.Catalog.
func New(deps Deps) *Toolkit {
	pipeline := deps.Pipeline
	if pipeline == nil {
		var history recommend.HistorySource
		if deps.Memory != nil {
			history = deps.Memory
		}
		pipeline = recommend.New(deps.Catalog, history, nil, recommend.DefaultOptions(), deps.Logger)
	}
	return &Toolkit{
		catalog:  deps.Catalog,
		pipeline: pipeline,
		memory:   deps.Memory,
		userID:   strings.TrimSpace(deps.UserID),
		logger:   logging.NewComponentLogger(deps.Logger, "agenttools"),
	}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Toolkit, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("cinepick - movie catalog lookups and viewer memory for recommending one high-quality film."),
		server.WithRecovery(),
	)
	t.Register(s)
	return s
}

// Register adds the tools to s.
func (t *Toolkit) Register(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool(ToolSearchMovies,
			mcp.WithDescription("Search for movies by title, keywords, or plot description."),
			mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
		),
		t.instrument(ToolSearchMovies, t.handleSearchMovies),
	)
	s.AddTool(
		mcp.NewTool(ToolSearchPerson,
			mcp.WithDescription("Search for actors, directors, or other people in movies."),
			mcp.WithString("name", mcp.Description("Person name"), mcp.Required()),
		),
		t.instrument(ToolSearchPerson, t.handleSearchPerson),
	)
	s.AddTool(
		mcp.NewTool(ToolGetPersonMovies,
			mcp.WithDescription("Get well-rated movies starring or made by a person. Use the returned ids exactly."),
			mcp.WithNumber("person_id", mcp.Description("Person id from search_person"), mcp.Required()),
			mcp.WithString("department", mcp.Description("cast or crew (default cast)"), mcp.Enum("cast", "crew")),
		),
		t.instrument(ToolGetPersonMovies, t.handleGetPersonMovies),
	)
	s.AddTool(
		mcp.NewTool(ToolDiscoverByGenre,
			mcp.WithDescription("Discover popular recent movies by genre. At most two genre ids are used."),
			mcp.WithArray("genre_ids", mcp.Description("TMDB genre ids"), mcp.Required(), mcp.Items(map[string]any{"type": "integer"})),
		),
		t.instrument(ToolDiscoverByGenre, t.handleDiscoverByGenre),
	)
	s.AddTool(
		mcp.NewTool(ToolGetMovieDetails,
			mcp.WithDescription("Get verified details, poster, and trailer for a movie id."),
			mcp.WithNumber("movie_id", mcp.Description("Movie id"), mcp.Required()),
		),
		t.instrument(ToolGetMovieDetails, t.handleGetMovieDetails),
	)
	s.AddTool(
		mcp.NewTool(ToolGetUserMemories,
			mcp.WithDescription("Retrieve the viewer's stored preferences and watched films."),
			mcp.WithString("query", mcp.Description("Optional search text")),
		),
		t.instrument(ToolGetUserMemories, t.handleGetUserMemories),
	)
	s.AddTool(
		mcp.NewTool(ToolSaveWatchedFilm,
			mcp.WithDescription("Save a film the viewer has watched."),
			mcp.WithString("film_title", mcp.Description("Film title"), mcp.Required()),
			mcp.WithNumber("film_id", mcp.Description("Movie id when known")),
			mcp.WithNumber("rating", mcp.Description("Rating from 1 to 10")),
			mcp.WithString("notes", mcp.Description("Free-text notes")),
		),
		t.instrument(ToolSaveWatchedFilm, t.handleSaveWatchedFilm),
	)
	s.AddTool(
		mcp.NewTool(ToolSaveUserPreference,
			mcp.WithDescription("Save a film preference of the viewer."),
			mcp.WithString("preference", mcp.Description("Preference text"), mcp.Required()),
		),
		t.instrument(ToolSaveUserPreference, t.handleSaveUserPreference),
	)
}

func (t *Toolkit) instrument(tool string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)
		outcome := "ok"
		if err != nil || (result != nil && result.IsError) {
			outcome = "error"
		}
		metrics.RecordToolCall(tool, outcome)
		t.logger.Debug("agent tool call",
			logging.String("tool", tool),
			logging.String("outcome", outcome),
			logging.Duration("elapsed", time.Since(start)),
		)
		return result, err
	}
}

func (t *Toolkit) upstreamError(tool string, err error) *mcp.CallToolResult {
	logging.WarnWithContext(t.logger, "agent tool upstream call failed", "agent_tool_failed",
		logging.String("tool", tool),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check TMDB availability and the circuit breaker state"),
		logging.String(logging.FieldImpact, "agent proposal may be incomplete"),
	)
	return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err))
}

func jsonResult(header string, payload any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(header + "\n" + string(b)), nil
}

func truncate(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
