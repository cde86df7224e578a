package paramsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads parameter files from a local directory. A missing directory
// is not an error: every lookup simply misses.
type DirSource struct {
	root string
}

// NewDirSource creates a directory-backed source rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) Name() string { return "dir:" + s.root }

// Root returns the directory the source reads from.
func (s *DirSource) Root() string { return s.root }

func (s *DirSource) Get(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanFile(file)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, name)) //nolint:gosec // name validated by cleanFile
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s.Name(), name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// FSSource reads parameter files from a directory inside an fs.FS, typically
// an embed.FS compiled into the binary.
type FSSource struct {
	label string
	fsys  fs.FS
	dir   string
}

// NewFSSource creates a source serving files under dir of fsys.
func NewFSSource(label string, fsys fs.FS, dir string) *FSSource {
	return &FSSource{label: label, fsys: fsys, dir: dir}
}

func (s *FSSource) Name() string { return s.label }

func (s *FSSource) Get(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanFile(file)
	if err != nil {
		return nil, err
	}

	p := name
	if s.dir != "" && s.dir != "." {
		p = s.dir + "/" + name
	}
	data, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s.label, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// List returns the file names available in the source, in lexical order.
func (s *FSSource) List() ([]string, error) {
	dir := s.dir
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
