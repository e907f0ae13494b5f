package picker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

// FuzzyPicker lets the user choose files under a directory with a fuzzy finder.
// Tab marks several files, Enter confirms.
type FuzzyPicker struct {
	// MaxDepth limits how deep below dir files are listed (0 = unlimited)
	MaxDepth int
	options  []fuzzyfinder.Option
}

// NewFuzzyPicker creates a picker
func NewFuzzyPicker(maxDepth int, opts ...fuzzyfinder.Option) *FuzzyPicker {
	return &FuzzyPicker{MaxDepth: maxDepth, options: opts}
}

// Pick lists candidate files and returns the chosen absolute paths.
// Aborting the finder returns no paths and no error.
func (p *FuzzyPicker) Pick(ctx context.Context, dir string) ([]string, error) {
	files, err := ListFiles(dir, p.MaxDepth)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	opts := append([]fuzzyfinder.Option{
		fuzzyfinder.WithContext(ctx),
		fuzzyfinder.WithHeader("Tab: select  Enter: stage  Esc: cancel"),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return describe(files[i])
		}),
	}, p.options...)

	idxs, err := fuzzyfinder.FindMulti(
		files,
		func(i int) string { return files[i].Rel },
		opts...,
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, fmt.Errorf("file picker failed: %w", err)
	}

	paths := make([]string, 0, len(idxs))
	for _, i := range idxs {
		paths = append(paths, files[i].Path)
	}
	return paths, nil
}

// Candidate is a file offered by the picker
type Candidate struct {
	Rel  string
	Path string
	Size int64
}

// ListFiles returns the regular files below dir, skipping hidden entries,
// sorted by relative path
func ListFiles(dir string, maxDepth int) ([]Candidate, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if maxDepth > 0 && strings.Count(rel, string(os.PathSeparator))+1 >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, Candidate{Rel: rel, Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}

func describe(c Candidate) string {
	return fmt.Sprintf("File: %s\nSize: %d bytes\nPath: %s", c.Rel, c.Size, c.Path)
}
