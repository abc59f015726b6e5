// Package schemaerr defines the error model shared by the schema loader, the
// type catalog and the converters.
//
// Every failure is reported as an *Error carrying a Kind (one of the sentinel
// errors below), a stable Code, and whatever location is known (document path,
// member name, JSON Pointer into the raw document). Callers branch on the kind
// with errors.Is and on the code with As.
package schemaerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cgalavis/schemakit/i18n"
)

// Error kinds.
var (
	ErrSchema          = errors.New("schema error")
	ErrUnknownType     = errors.New("unknown type")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrIO              = errors.New("io error")
	ErrConversion      = errors.New("conversion error")
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	// Schema structure
	CodeMissingType         = "missing_type"
	CodeInvalidName         = "invalid_name"
	CodeNoMembers           = "no_members"
	CodeDuplicateMember     = "duplicate_member"
	CodeInvalidValues       = "invalid_values"
	CodeInvalidValueType    = "invalid_value_type"
	CodeIncompatibleVersion = "incompatible_version"
	CodeInvalidVersion      = "invalid_version"
	CodeDuplicateDocument   = "duplicate_document"
	CodeEmptyDocument       = "empty_document"
	CodeDependencyCycle     = "dependency_cycle"
	CodeDuplicateKey        = "duplicate_key"
	CodeMaxDepth            = "max_depth"
	CodeMalformedDocument   = "malformed_document"
	// Files
	CodeFileNotFound = "file_not_found"
	CodeReadFailed   = "read_failed"
	// Types
	CodeUnknownType     = "unknown_type"
	CodeUnsupportedType = "unsupported_type"
	// Conversion
	CodeInvalidDescriptor = "invalid_descriptor"
	CodeWrongRoot         = "wrong_root"
	CodeMalformedPayload  = "malformed_payload"
	CodeInvalidValue      = "invalid_value"
	CodeShortBuffer       = "short_buffer"
	CodeTrailingBytes     = "trailing_bytes"
)

// Error is a single structured failure.
type Error struct {
	Kind     error  // One of the sentinel kinds above.
	Code     string // One of the codes listed above.
	Document string // Path of the schema document, when known.
	Path     string // JSON Pointer into the raw document (for example: /members/2/values).
	Member   string // Full name of the owning member, when known.
	Message  string
	// Params carries structured parameters (e.g., {"name":"x", "type":"int24"})
	// for i18n and diagnostics.
	Params map[string]any
	Cause  error
}

// New builds an error of the given kind. kv is a flat list of param pairs.
func New(kind error, code string, kv ...any) *Error {
	e := &Error{Kind: kind, Code: code}
	if len(kv) > 1 {
		e.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	e.Message = i18n.T(code, e.stringParams())
	return e
}

// Schema is shorthand for New(ErrSchema, ...).
func Schema(code string, kv ...any) *Error { return New(ErrSchema, code, kv...) }

// Conversion is shorthand for New(ErrConversion, ...).
func Conversion(code string, kv ...any) *Error { return New(ErrConversion, code, kv...) }

// IO reports an unreadable or missing file.
func IO(code, path string, cause error) *Error {
	e := New(ErrIO, code)
	e.Document = path
	e.Cause = cause
	return e
}

// In sets the document path when not already set and returns e.
func (e *Error) In(document string) *Error {
	if e.Document == "" {
		e.Document = document
	}
	return e
}

// At sets the raw document pointer when not already set and returns e.
func (e *Error) At(path string) *Error {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// Of sets the owning member when not already set and returns e.
func (e *Error) Of(member string) *Error {
	if e.Member == "" {
		e.Member = member
	}
	return e
}

// Wrap attaches an underlying cause and returns e.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
	}
	b.WriteString(e.Code)
	if e.Message != "" && e.Message != e.Code {
		fmt.Fprintf(b, " (%s)", e.Message)
	}
	if e.Member != "" {
		fmt.Fprintf(b, " member %s", e.Member)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Document != "" {
		fmt.Fprintf(b, " in %s", e.Document)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches the error kind, so errors.Is(err, ErrSchema) works on any *Error.
func (e *Error) Is(target error) bool { return e.Kind != nil && e.Kind == target }

// Param returns a string form of a param, or "" when unset.
func (e *Error) Param(key string) string {
	v, ok := e.Params[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (e *Error) stringParams() map[string]string {
	if len(e.Params) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Params))
	for k, v := range e.Params {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// As extracts an *Error from err using errors.As internally.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// List is a collection of errors that implements error. Loaders that validate
// every document before committing use it to report more than one failure.
type List []*Error

// Error summarizes the first few errors.
func (l List) Error() string {
	if len(l) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(l), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(l[i].Error())
	}
	if len(l) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(l))
	}
	return b.String()
}

// Sort orders the list by document then path so output is deterministic.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Document != l[j].Document {
			return l[i].Document < l[j].Document
		}
		return l[i].Path < l[j].Path
	})
}

// Err returns nil for an empty list and the list otherwise.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
