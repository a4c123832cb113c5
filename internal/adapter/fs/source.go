// Package fs reads gauge files from the local filesystem.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// DirSource lists every .txt file in a directory. It implements pipeline.Source.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over dir. Subdirectories are not walked.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Inputs reads the directory's .txt files in name order.
func (s *DirSource) Inputs(ctx context.Context) ([]domain.StationInput, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	return NewFileSource(paths...).Inputs(ctx)
}

// FileSource reads an explicit list of files. It implements pipeline.Source.
type FileSource struct {
	paths []string
}

// NewFileSource creates a source over the given paths.
func NewFileSource(paths ...string) *FileSource {
	cp := append([]string(nil), paths...)
	sort.Strings(cp)
	return &FileSource{paths: cp}
}

// Inputs reads every file. Station identifiers come from the file names.
func (s *FileSource) Inputs(ctx context.Context) ([]domain.StationInput, error) {
	inputs := make([]domain.StationInput, 0, len(s.paths))
	for _, p := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		inputs = append(inputs, domain.StationInput{
			Station: domain.StationFromFilename(p),
			Source:  p,
			Data:    data,
		})
	}
	return inputs, nil
}
