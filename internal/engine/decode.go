package engine

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupError DuplicateStrictness = iota
	DupIgnore
)

// Options controls decode-time enforcement.
type Options struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int // 0 disables the check
}

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// Issue codes produced by the engine.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeMaxDepth     = "max_depth"
	CodeSyntax       = "syntax"
)

// Decode builds an "any" tree (map[string]any, []any, json.Number, string,
// bool, nil) from src while enforcing opt. Exactly one top-level value is
// accepted.
func Decode(src TokenSource, opt Options) (any, error) {
	d := &decoder{src: src, opt: opt}
	tok, err := d.next("")
	if err != nil {
		return nil, err
	}
	v, err := d.value(tok, "", 0)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err == nil {
		return nil, d.issue(CodeSyntax, "/", "unexpected data after top-level value")
	} else if !errors.Is(err, io.EOF) {
		return nil, d.issue(CodeSyntax, "/", err.Error())
	}
	return v, nil
}

// DecodeBytes is Decode over a go-json backed source.
func DecodeBytes(b []byte, opt Options) (any, error) { return Decode(NewBytes(b), opt) }

type decoder struct {
	src TokenSource
	opt Options
}

func (d *decoder) issue(code, path, msg string) error {
	if path == "" {
		path = "/"
	}
	return IssueError{SimpleIssue{Code: code, Path: path, Message: msg, Offset: d.src.Location()}}
}

func (d *decoder) next(path string) (Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Token{}, d.issue(CodeSyntax, path, "unexpected end of input")
		}
		var ie IssueError
		if errors.As(err, &ie) {
			return Token{}, err
		}
		return Token{}, d.issue(CodeSyntax, path, err.Error())
	}
	return tok, nil
}

func (d *decoder) value(tok Token, path string, depth int) (any, error) {
	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		if d.opt.MaxDepth > 0 && depth+1 > d.opt.MaxDepth {
			return nil, d.issue(CodeMaxDepth, path, "max depth exceeded")
		}
		if tok.Kind == KindBeginObject {
			return d.object(path, depth+1)
		}
		return d.array(path, depth+1)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, d.issue(CodeSyntax, path, "unexpected token")
	}
}

func (d *decoder) object(path string, depth int) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, d.issue(CodeSyntax, path, "expected object key")
		}
		kpath := joinJSONPointer(path, tok.String)
		if _, dup := m[tok.String]; dup && d.opt.OnDuplicate == DupError {
			return nil, d.issue(CodeDuplicateKey, kpath, "key '"+tok.String+"' duplicated")
		}
		vt, err := d.next(kpath)
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, kpath, depth)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d *decoder) array(path string, depth int) (any, error) {
	arr := []any{}
	for i := 0; ; i++ {
		tok, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok, joinJSONPointer(path, strconv.Itoa(i)), depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
