package verify

import (
	"log/slog"
	"regexp"
	"strings"

	"cinepick/internal/logging"
)

const (
	imageBaseURL      = "https://image.tmdb.org/t/p/"
	DefaultPosterSize = "w500"
	minPosterPathLen  = 5
)

var (
	posterPathPattern = regexp.MustCompile(`(?i)^/[a-z0-9_\-/]+\.(jpg|jpeg|png|webp)$`)
	posterURLPattern  = regexp.MustCompile(`(?i)^https://image\.tmdb\.org/t/p/w\d+/[a-z0-9_\-/]+\.(jpg|jpeg|png|webp)$`)
	posterSizePattern = regexp.MustCompile(`^w\d+$`)

	suspiciousPatterns = []string{"http", "https", "<script", "javascript", "data:", ".com", ".org", ".net", "www."}
)

// PosterValidator turns raw TMDB poster paths into validated image URLs.
type PosterValidator struct {
	size   string
	logger *slog.Logger
}

// NewPosterValidator returns a validator rendering URLs at size (for example
// "w500"). An invalid size falls back to w500.
func NewPosterValidator(size string, logger *slog.Logger) *PosterValidator {
	size = strings.ToLower(strings.TrimSpace(size))
	if !posterSizePattern.MatchString(size) {
		size = DefaultPosterSize
	}
	return &PosterValidator{size: size, logger: logging.NewComponentLogger(logger, "poster")}
}

// URL validates path and renders the poster URL. Any deviation from the
// expected format yields "".
func (v *PosterValidator) URL(path string) string {
	path = strings.TrimSpace(path)
	if len(path) < minPosterPathLen {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !posterPathPattern.MatchString(path) {
		v.logger.Debug("rejected poster path format", logging.String("poster_path", truncate(path, 50)))
		return ""
	}
	lowered := strings.ToLower(path)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lowered, pattern) {
			logging.WarnWithContext(v.logger, "rejected suspicious poster path", "poster_suspicious",
				logging.String("poster_path", truncate(path, 50)),
				logging.String("pattern", pattern),
				logging.String(logging.FieldImpact, "movie is sent without a poster"),
				logging.String(logging.FieldErrorHint, "inspect the catalog record for this movie"),
			)
			return ""
		}
	}
	url := imageBaseURL + v.size + path
	if !posterURLPattern.MatchString(url) {
		return ""
	}
	return url
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
