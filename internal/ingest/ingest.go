// Package ingest appends event batch files to a scene session.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"scenecraft/internal/event"
	"scenecraft/internal/parser"
)

type Result struct {
	FilesRead      int
	FilesSkipped   int
	Appended       int
	Rejected       int
	ChaptersClosed int
	Errors         []error
}

type Options struct {
	Exclude []string
	// DetectChapters closes chapters at location changes and time jumps after
	// each file is appended.
	DetectChapters bool
}

var ErrChatMismatch = errors.New("batch belongs to another chat")

var batchExtensions = []string{".yaml", ".yml", ".json"}

// Run appends every batch file under paths in lexical order. Rejected events
// and unreadable files are collected in Result.Errors; a persistence failure
// stops the run.
func Run(ctx context.Context, sess Session, paths []string, options Options) (*Result, error) {
	files, err := walkBatchFiles(paths, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking batch files: %w", err)
	}

	result := &Result{}
	for _, path := range files {
		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrEmptyDocument) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		if doc.Chat != "" && doc.Chat != sess.ChatID() {
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w: %s", path, ErrChatMismatch, doc.Chat))
			continue
		}
		result.FilesRead++

		for _, itemErr := range doc.Errors {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, itemErr))
		}

		batch, err := sess.Append(ctx, doc.Events)
		if err != nil {
			return result, fmt.Errorf("appending %s: %w", path, err)
		}
		result.Appended += len(batch.Appended)
		for _, rejected := range batch.Errors {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, rejected))
		}

		if options.DetectChapters {
			for _, origin := range origins(batch.Appended) {
				ended, err := sess.CloseChapterIfNeeded(ctx, origin)
				if err != nil {
					return result, fmt.Errorf("closing chapter at turn %d: %w", origin.TurnID, err)
				}
				if ended != nil {
					result.ChaptersClosed++
				}
			}
		}
	}

	return result, nil
}

// origins returns the distinct origins of events, turn ascending.
func origins(events []event.Event) []event.Origin {
	var out []event.Origin
	for _, e := range events {
		if !slices.Contains(out, e.Origin) {
			out = append(out, e.Origin)
		}
	}
	slices.SortStableFunc(out, func(a, b event.Origin) int {
		return a.TurnID - b.TurnID
	})
	return out
}

func walkBatchFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !slices.Contains(batchExtensions, strings.ToLower(filepath.Ext(d.Name()))) {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
