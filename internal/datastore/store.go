package datastore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// DefaultRoot is the datastore directory used when none is configured.
const DefaultRoot = "./datastore"

// MatchAll is the partition pattern that selects every partition.
const MatchAll = "*"

// tempPrefix marks in-flight writes. ListPartitions never reports them.
const tempPrefix = ".tmp-"

var (
	// ErrNotFound is returned by Read when a partition does not exist.
	ErrNotFound = errors.New("partition not found")

	// ErrInvalidPartition is returned for keys that cannot name a file
	// directly under the store root.
	ErrInvalidPartition = errors.New("invalid partition key")

	// ErrInvalidPattern is returned by ListPartitions for malformed globs.
	ErrInvalidPattern = errors.New("invalid partition pattern")
)

// Store is a directory of partition files.
type Store struct {
	root     string
	permFile os.FileMode
}

// Open returns a Store rooted at dir, creating the directory if needed.
// An empty dir means DefaultRoot.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultRoot
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create datastore %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat datastore %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("datastore %s is not a directory", dir)
	}
	return &Store{root: dir, permFile: 0o644}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Exists reports whether the partition file exists.
func (s *Store) Exists(key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat partition %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Read returns every line of a partition in file order.
// Returns ErrNotFound if the partition does not exist.
func (s *Store) Read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read partition %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", key, err)
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", key, err)
	}
	return lines, nil
}

// Write replaces the partition with lines, one per line, in order.
// The partition is created if it does not exist.
func (s *Store) Write(ctx context.Context, key string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	if err := writeAtomic(dest, lines, s.permFile); err != nil {
		return fmt.Errorf("write partition %s: %w", key, err)
	}
	return nil
}

// ListPartitions returns the keys of partitions whose names match the glob
// pattern, sorted by name. "*" matches every partition and a literal date
// matches at most one. No match yields an empty slice.
func (s *Store) ListPartitions(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = MatchAll
	}
	if _, err := doublestar.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		if ok {
			keys = append(keys, name)
		}
	}
	return keys, nil
}

// path maps a partition key to its file, rejecting anything that would
// escape the root.
func (s *Store) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, tempPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPartition, key)
	}
	return filepath.Join(s.root, key), nil
}

// ReadLines reads newline-terminated lines from r. A final line without a
// terminator is included and "\r\n" endings are accepted.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := NewLineScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// NewLineScanner returns a line scanner that accepts lines up to 1 MiB.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
