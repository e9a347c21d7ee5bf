package hashfind

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"av1ify/internal/logging"
	"av1ify/internal/pathid"
)

// Match is one path whose recomputed identity matches the query.
type Match struct {
	Path     string
	Identity string
	IsFolder bool
}

// kind restricts which identities a query can match.
type kind int

const (
	kindAny kind = iota
	kindFile
	kindFolder
)

// Query is a parsed identity prefix.
type Query struct {
	prefix string
	kind   kind
}

// ParseQuery interprets user input as an identity prefix. Input may be a
// full identity ("file_3f9a..."), a prefixed partial ("folder_3f"), or a
// bare hex prefix that matches either kind. Hex digits are matched
// case-insensitively.
func ParseQuery(input string) (Query, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return Query{}, fmt.Errorf("empty hash prefix")
	}

	q := Query{prefix: trimmed, kind: kindAny}
	switch {
	case strings.HasPrefix(trimmed, pathid.FilePrefix):
		q.kind = kindFile
	case strings.HasPrefix(trimmed, pathid.FolderPrefix):
		q.kind = kindFolder
	}

	hexPart := trimmed
	if q.kind == kindFile {
		hexPart = strings.TrimPrefix(trimmed, pathid.FilePrefix)
	} else if q.kind == kindFolder {
		hexPart = strings.TrimPrefix(trimmed, pathid.FolderPrefix)
	}
	for _, r := range hexPart {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return Query{}, fmt.Errorf("hash prefix %q contains non-hex character %q", input, r)
		}
	}
	return q, nil
}

func (q Query) matches(identity string) bool {
	switch q.kind {
	case kindFile, kindFolder:
		return strings.HasPrefix(identity, q.prefix)
	default:
		if pathid.IsFileID(identity) {
			return strings.HasPrefix(strings.TrimPrefix(identity, pathid.FilePrefix), q.prefix)
		}
		return strings.HasPrefix(strings.TrimPrefix(identity, pathid.FolderPrefix), q.prefix)
	}
}

// Find walks root and returns every file and folder whose recomputed
// identity matches the query, in walk order. Unreadable entries are
// logged and skipped rather than failing the whole search.
func Find(ctx context.Context, root string, query Query, logger *slog.Logger) ([]Match, error) {
	logger = logging.NewComponentLogger(logger, "hashfind")

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve search root %q: %w", root, err)
	}
	root = abs

	var matches []Match
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		var identity string
		if entry.IsDir() {
			identity, err = pathid.ForFolder(path)
		} else {
			identity, err = pathid.ForFile(path)
		}
		if err != nil {
			logger.Warn("cannot compute identity", logging.String("path", path), logging.Error(err))
			return nil
		}

		if query.matches(identity) {
			matches = append(matches, Match{Path: path, Identity: identity, IsFolder: entry.IsDir()})
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return matches, nil
}
