package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	scheme    = "sqlite://"
	memoryDSN = ":memory:"
)

// IsDSN reports whether dsn selects the sqlite backend.
func IsDSN(dsn string) bool {
	return strings.HasPrefix(dsn, scheme)
}

// parseDSN turns sqlite://path[?query] into a driver DSN. Relative paths are
// resolved against the working directory.
func parseDSN(dsn string) (string, error) {
	if !IsDSN(dsn) {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected %s", scheme)
	}

	rest := strings.TrimPrefix(dsn, scheme)
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN has no path")
	}
	if rest == memoryDSN {
		return memoryDSN, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
