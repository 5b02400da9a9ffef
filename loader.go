package criteria

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Unit is a test definition unit. Register is called at most once per
// Loader for each distinct Key.
type Unit interface {
	Key() string
	Register(r *Registry) error
}

type unitFunc struct {
	key string
	fn  func(*Registry) error
}

func (u unitFunc) Key() string                { return u.key }
func (u unitFunc) Register(r *Registry) error { return u.fn(r) }

// NewUnit returns a Unit calling fn with the loader's registry.
func NewUnit(key string, fn func(*Registry) error) Unit {
	return unitFunc{key: key, fn: fn}
}

// Loader discovers test files, executes each logical file once and runs the
// suites they register.
type Loader struct {
	set      settings
	registry *Registry
	seen     map[string]bool
	units    []Unit
}

// NewLoader returns a Loader with a fresh Registry.
func NewLoader(opts ...Option) *Loader {
	s := newSettings(opts)
	return &Loader{
		set:      s,
		registry: newRegistry(s),
		seen:     make(map[string]bool),
	}
}

// Registry returns the registry units register into.
func (l *Loader) Registry() *Registry { return l.registry }

// Add queues Go units. They are registered by the next Load, before any
// discovered file, and share the dedup keys of discovered files.
func (l *Loader) Add(units ...Unit) {
	l.units = append(l.units, units...)
}

// Load registers queued units, then executes every test file under root
// whose dedup key has not been seen yet. A unit that fails to register
// aborts the load with a *LoadError; an unreadable root is a
// *DiscoveryError.
func (l *Loader) Load(root string) error {
	log := l.set.logger

	units := l.units
	l.units = nil
	for _, u := range units {
		key := u.Key()
		if key == "" || l.seen[key] {
			log.Debug("skipping unit", "key", key)
			continue
		}
		l.seen[key] = true
		log.Debug("registering unit", "key", key)
		if err := u.Register(l.registry); err != nil {
			return &LoadError{Path: key, Err: err}
		}
	}

	files, err := discover(root, l.set.skip)
	if err != nil {
		return &DiscoveryError{Root: root, Err: err}
	}
	log.Debug("discovered files", "root", root, "count", len(files))

	for _, path := range files {
		key, ok := dedupKey(path, l.set.extensions)
		if !ok {
			continue
		}
		if key == "" || l.seen[key] {
			log.Debug("skipping test file", "path", path, "key", key)
			continue
		}
		l.seen[key] = true

		l.set.report.Loading(path, key)
		if err := l.execFile(path); err != nil {
			return &LoadError{Path: path, Err: err}
		}
	}
	return nil
}

// RunAll runs every registered top-level suite in registration order.
func (l *Loader) RunAll() error {
	return l.registry.Run()
}

// Discover returns every file below root in directory enumeration order,
// skipping DefaultSkipPatterns directories.
func Discover(root string) ([]string, error) {
	return discover(root, DefaultSkipPatterns)
}

func discover(root string, skip []string) ([]string, error) {
	var files []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			isDir := entry.IsDir()
			if entry.Type()&os.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				isDir = info.IsDir()
			}
			if !isDir {
				files = append(files, path)
				continue
			}
			if skipDir(root, path, skip) {
				continue
			}
			if err := walk(path); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}

func skipDir(root, path string, patterns []string) bool {
	name := filepath.Base(path)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// IsTestFile reports whether path names a test file with one of the
// DefaultExtensions, such as "math.test.star" or "strings.spec.sky".
func IsTestFile(path string) bool {
	key, ok := dedupKey(path, DefaultExtensions)
	return ok && key != ""
}

// DedupKey returns the base name of a test file with its ".test"/".spec"
// suffix and extension removed, or "" if path is not a test file.
func DedupKey(path string) string {
	key, _ := dedupKey(path, DefaultExtensions)
	return key
}

func testFilePattern(exts []string) string {
	return "*.{test,spec}.{" + strings.Join(exts, ",") + "}"
}

func dedupKey(path string, exts []string) (string, bool) {
	if len(exts) == 0 {
		return "", false
	}
	base := filepath.Base(path)
	ok, err := doublestar.Match(testFilePattern(exts), base)
	if err != nil || !ok {
		return "", false
	}
	key := strings.TrimSuffix(base, filepath.Ext(base))
	return key[:strings.LastIndex(key, ".")], true
}
