package schemaerr

import (
	"strconv"
	"strings"
)

// Pointer builds JSON Pointer paths into a raw schema document in a
// chain-safe way. The zero value is the document root.
type Pointer struct {
	parts []string
}

// Root returns the root pointer.
func Root() Pointer { return Pointer{} }

// Field appends an object key, escaping per RFC6901.
func (p Pointer) Field(name string) Pointer {
	if name == "" {
		return p
	}
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return Pointer{parts: append(append([]string{}, p.parts...), esc)}
}

// Index appends an array index.
func (p Pointer) Index(i int) Pointer {
	return Pointer{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// String renders the pointer; the root renders as "/".
func (p Pointer) String() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Schema creates a schema error located at p.
func (p Pointer) Schema(code string, kv ...any) *Error {
	return Schema(code, kv...).At(p.String())
}
