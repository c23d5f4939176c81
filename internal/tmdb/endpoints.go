package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchMovies searches TMDB for titles matching query.
func (c *Client) SearchMovies(ctx context.Context, query string) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")

	var payload MoviePage
	if err := c.get(ctx, "search_movie", "/search/movie", params, c.timeouts.Search, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchPerson searches TMDB for people matching name.
func (c *Client) SearchPerson(ctx context.Context, name string) (*PersonPage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}
	params := url.Values{}
	params.Set("query", name)
	params.Set("page", "1")

	var payload PersonPage
	if err := c.get(ctx, "search_person", "/search/person", params, c.timeouts.Person, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PersonMovieCredits returns the cast and crew filmography of a person.
func (c *Client) PersonMovieCredits(ctx context.Context, personID int64) (*Credits, error) {
	if personID <= 0 {
		return nil, fmt.Errorf("invalid person id %d", personID)
	}
	path := "/person/" + strconv.FormatInt(personID, 10) + "/movie_credits"

	var payload Credits
	if err := c.get(ctx, "person_credits", path, nil, c.timeouts.Person, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches the full record for one movie.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("invalid movie id %d", movieID)
	}
	path := "/movie/" + strconv.FormatInt(movieID, 10)

	var payload MovieDetails
	if err := c.get(ctx, "movie_details", path, nil, c.timeouts.Details, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieVideos fetches the video list for one movie.
func (c *Client) MovieVideos(ctx context.Context, movieID int64) (*VideoList, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("invalid movie id %d", movieID)
	}
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/videos"

	var payload VideoList
	if err := c.get(ctx, "movie_videos", path, nil, c.timeouts.Videos, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DiscoverOptions filters /discover/movie.
type DiscoverOptions struct {
	// GenreIDs are joined with commas; TMDB treats that as AND.
	GenreIDs      []int
	MinRating     float64
	MinVotes      int64
	ReleasedAfter time.Time
	SortBy        string
	Page          int
}

// DiscoverMovies queries /discover/movie.
func (c *Client) DiscoverMovies(ctx context.Context, opts DiscoverOptions) (*MoviePage, error) {
	params := url.Values{}
	sortBy := strings.TrimSpace(opts.SortBy)
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)
	if opts.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.MinRating, 'f', -1, 64))
	}
	if opts.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.FormatInt(opts.MinVotes, 10))
	}
	if !opts.ReleasedAfter.IsZero() {
		params.Set("primary_release_date.gte", opts.ReleasedAfter.Format("2006-01-02"))
	}
	if len(opts.GenreIDs) > 0 {
		ids := make([]string, 0, len(opts.GenreIDs))
		for _, id := range opts.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	var payload MoviePage
	if err := c.get(ctx, "discover_movie", "/discover/movie", params, c.timeouts.Discover, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
