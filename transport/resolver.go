package transport

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// ServerEntry maps a logical capability-server name to the package that ships
// it and the executable it installs.
type ServerEntry struct {
	Package string `yaml:"package" json:"package"`
	Binary  string `yaml:"binary,omitempty" json:"binary,omitempty"`
}

// BinaryResolver maps logical server names to executable paths using a static
// registry table. The table is configuration, never user input.
type BinaryResolver struct {
	table      map[string]ServerEntry
	searchDirs []string
	lookPath   func(string) (string, error)
}

// NewBinaryResolver builds a resolver over the registry table. Extra search
// directories are consulted after PATH, in order.
func NewBinaryResolver(table map[string]ServerEntry, searchDirs ...string) *BinaryResolver {
	if table == nil {
		table = map[string]ServerEntry{}
	}
	return &BinaryResolver{
		table:      table,
		searchDirs: searchDirs,
		lookPath:   exec.LookPath,
	}
}

// Resolve locates the executable for a logical server name. It fails with
// UnknownServerError when the name is not in the table (caller bug) and with
// NotInstalledError when the table entry exists but no executable can be
// found (environment problem).
func (r *BinaryResolver) Resolve(name string) (string, error) {
	entry, ok := r.table[name]
	if !ok {
		return "", &UnknownServerError{Name: name}
	}
	binary := entry.Binary
	if binary == "" {
		binary = name
	}
	if path, err := r.lookPath(binary); err == nil {
		return path, nil
	}
	for _, dir := range r.searchDirs {
		candidate := filepath.Join(dir, binary)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &NotInstalledError{Name: name, Package: entry.Package}
}

// Known returns the registered logical names, sorted.
func (r *BinaryResolver) Known() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the registry entry for a logical name.
func (r *BinaryResolver) Entry(name string) (ServerEntry, bool) {
	entry, ok := r.table[name]
	return entry, ok
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
