package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeBytes_Tree(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"a":[1,"x",true,null],"b":{"c":2.5}}`), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := v.(map[string]any)
	arr := m["a"].([]any)
	if arr[0] != json.Number("1") || arr[1] != "x" || arr[2] != true || arr[3] != nil {
		t.Fatalf("unexpected array: %#v", arr)
	}
	if m["b"].(map[string]any)["c"] != json.Number("2.5") {
		t.Fatalf("unexpected nested: %#v", m["b"])
	}
}

func TestDecodeBytes_DuplicateKey(t *testing.T) {
	_, err := DecodeBytes([]byte(`{"members":[{"name":"a","name":"b"}]}`), Options{})
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != CodeDuplicateKey || ie.Path != "/members/0/name" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}

	v, err := DecodeBytes([]byte(`{"k":1,"k":2}`), Options{OnDuplicate: DupIgnore})
	if err != nil {
		t.Fatalf("ignore mode: %v", err)
	}
	if v.(map[string]any)["k"] != json.Number("2") {
		t.Fatalf("last value should win: %#v", v)
	}
}

func TestDecodeBytes_MaxDepth(t *testing.T) {
	_, err := DecodeBytes([]byte(`{"a":{"b":{"c":1}}}`), Options{MaxDepth: 2})
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != CodeMaxDepth {
		t.Fatalf("expected max depth issue, got %v", err)
	}
	if _, err := DecodeBytes([]byte(`{"a":{"b":1}}`), Options{MaxDepth: 2}); err != nil {
		t.Fatalf("depth 2 should pass: %v", err)
	}
}

func TestDecodeBytes_Malformed(t *testing.T) {
	for _, in := range []string{`{"a":`, `{"a":1} {}`, ``} {
		_, err := DecodeBytes([]byte(in), Options{})
		var ie IssueError
		if !errors.As(err, &ie) || ie.Code != CodeSyntax {
			t.Fatalf("%q: expected syntax issue, got %v", in, err)
		}
	}
}
