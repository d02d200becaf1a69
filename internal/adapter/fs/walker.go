package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"logsweep/internal/domain"
)

type Walker struct {
	fs       afero.Fs
	includes []string
	excludes []string
}

func NewWalker(fs afero.Fs, includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**"}
	}
	return &Walker{
		fs:       fs,
		includes: includes,
		excludes: excludes,
	}
}

// Walk visits regular files directly under root, or the whole subtree when
// recursive is set. Patterns are matched against the slash-separated path
// relative to root. An error is returned only when root itself cannot be
// read; failures below root are handed to visit. A root that is a symlink
// to a directory is followed; links below root are not.
func (w *Walker) Walk(root string, recursive bool, visit func(domain.Candidate)) error {
	walkRoot := w.resolveRoot(root)
	return afero.Walk(w.fs, walkRoot, func(path string, info os.FileInfo, err error) error {
		if path == walkRoot {
			return err
		}

		relPath, relErr := filepath.Rel(walkRoot, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if err != nil {
			if info != nil && info.IsDir() {
				visit(domain.Candidate{Path: path, Dir: true, Err: fmt.Errorf("read directory: %w", err)})
				return nil
			}
			if w.selected(relPath) {
				visit(domain.Candidate{Path: path, Err: err})
			}
			return nil
		}

		if info.IsDir() {
			if !recursive || w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks, sockets, devices and pipes are not candidates.
		if !info.Mode().IsRegular() {
			return nil
		}

		if w.selected(relPath) {
			visit(domain.Candidate{Path: path})
		}
		return nil
	})
}

// resolveRoot returns the path to hand to afero.Walk. Walk lstats its root,
// so a symlinked directory would look like a leaf; a trailing separator
// makes the lookup follow the link while child paths keep the caller's
// prefix.
func (w *Walker) resolveRoot(root string) string {
	lstater, ok := w.fs.(afero.Lstater)
	if !ok {
		return root
	}
	info, lstatCalled, err := lstater.LstatIfPossible(root)
	if err != nil || !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
		return root
	}
	if target, err := w.fs.Stat(root); err != nil || !target.IsDir() {
		return root
	}
	return root + string(filepath.Separator)
}

func (w *Walker) selected(relPath string) bool {
	return w.shouldInclude(relPath) && !w.shouldExclude(relPath)
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
