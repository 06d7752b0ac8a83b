package uploads

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// Store writes uploads into a single directory. Every write goes through an
// os.Root so no name can resolve outside of it. Concurrent writes to the same
// name race and the last one to finish wins.
type Store struct {
	dir       string
	urlPrefix string
	root      *os.Root
}

// NewStore creates dir when missing and opens it as the upload root.
// Calling it again for an existing directory is fine.
func NewStore(dir, urlPrefix string) (*Store, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", absPath, err)
	}
	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload directory %s: %w", absPath, err)
	}

	slog.Info("upload directory ready", "path", absPath)
	return &Store{
		dir:       absPath,
		urlPrefix: urlPrefix,
		root:      root,
	}, nil
}

// Dir returns the absolute upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under name, replacing any existing file. name must already
// be sanitized; it is rejected if it is not a single path element.
func (s *Store) Save(name string, data []byte) (err error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("refusing to write %q: not a plain file name", name)
	}

	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", name, cerr)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// URL returns the public path a saved file is served from.
func (s *Store) URL(name string) string {
	return path.Join(s.urlPrefix, name)
}

func (s *Store) Close() error {
	return s.root.Close()
}
