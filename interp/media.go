package interp

import (
	"os"
	"path/filepath"
)

// Media resolves import URIs against a set of mounted directories, kept
// external to the interpreter core. The `_file` intrinsic does not go
// through Media; it uses its path arguments directly. Mount is
// idempotent on the absolute path; ReadTo tries each mounted directory in
// mount order before falling back to treating uri as a literal path.
type Media struct {
	mounted []string
}

// NewMedia returns an empty Media with no mounted directories.
func NewMedia() *Media { return &Media{} }

// Mount adds a directory to the search path. It is idempotent: mounting the
// same directory (by absolute path) twice is a no-op that still reports
// success. It fails if path does not resolve to an existing directory.
func (m *Media) Mount(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.ToSlash(abs)
	if m.IsMounted(abs) {
		return true
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return false
	}
	m.mounted = append(m.mounted, abs)
	return true
}

// IsMounted reports whether path is already mounted, by exact string match.
func (m *Media) IsMounted(path string) bool {
	for _, p := range m.mounted {
		if p == path {
			return true
		}
	}
	return false
}

// Exists reports whether uri resolves to a regular file via ReadTo's search
// order, without reading its contents.
func (m *Media) Exists(uri string) bool {
	_, ok := m.resolve(uri)
	return ok
}

// ReadTo tries each mounted directory, in mount order, joined with uri,
// then falls back to uri as a literal path. On success it fills out with
// the file's contents and returns true.
func (m *Media) ReadTo(out *string, uri string) bool {
	path, ok := m.resolve(uri)
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	*out = string(data)
	return true
}

func (m *Media) resolve(uri string) (string, bool) {
	for _, dir := range m.mounted {
		p := filepath.Join(dir, uri)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	if info, err := os.Stat(uri); err == nil && info.Mode().IsRegular() {
		return uri, true
	}
	return "", false
}
