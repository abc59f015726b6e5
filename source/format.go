package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cgalavis/schemakit/schemaerr"
)

// Options tunes decoding.
type Options struct {
	// MaxDepth bounds nesting of JSON/YAML documents; 0 disables the check.
	MaxDepth int
	// AllowDuplicateKeys keeps the last value of a repeated JSON key instead of
	// rejecting the document.
	AllowDuplicateKeys bool
}

// Format decodes one schema file syntax. Implementations are selected by file
// extension and may be replaced with Register.
type Format interface {
	Name() string
	Extensions() []string
	Decode(data []byte, opt Options) (*Document, error)
	// Sniff reports whether data parses and carries a plausible version field.
	// It must not fail on arbitrary input.
	Sniff(data []byte) bool
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{}
)

func init() {
	Register(JSON())
	Register(YAML())
	Register(XML())
}

// Register installs f for each of its extensions, replacing any previous
// format; nil values are ignored.
func Register(f Format) {
	if f == nil {
		return
	}
	formatsMu.Lock()
	defer formatsMu.Unlock()
	for _, ext := range f.Extensions() {
		formats[strings.ToLower(ext)] = f
	}
}

// FormatFor returns the format registered for path's extension.
func FormatFor(path string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Extensions lists the registered extensions in sorted order.
func Extensions() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ReadFile reads and decodes the schema at path. Missing files fail with
// ErrIO/file_not_found, unreadable ones with ErrIO/read_failed, and decode
// failures carry the path.
func ReadFile(path string, opt Options) (*Document, error) {
	f, ok := FormatFor(path)
	if !ok {
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument, "reason", "unsupported extension").In(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, schemaerr.IO(schemaerr.CodeFileNotFound, path, err)
		}
		return nil, schemaerr.IO(schemaerr.CodeReadFailed, path, err)
	}
	doc, err := f.Decode(data, opt)
	if err != nil {
		if e, ok := schemaerr.As(err); ok {
			return nil, e.In(path)
		}
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument).In(path).Wrap(err)
	}
	doc.Path = path
	doc.Format = f.Name()
	return doc, nil
}

// SniffFile is the pre-parse used to filter dependency candidates: it is
// false for unknown extensions, unreadable files and non-schema content.
func SniffFile(path string) bool {
	f, ok := FormatFor(path)
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return f.Sniff(data)
}

// plausibleVersion accepts "a.b.c" strings and three-element numeric arrays.
func plausibleVersion(v any) bool {
	s, err := versionString(v, schemaerr.Root())
	if err != nil || s == "" {
		return false
	}
	return len(strings.Split(s, ".")) == 3
}
