package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("no_members", nil); msg != "no members" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("no_members", nil); msg == "no members" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	got := T("duplicate_member", map[string]string{"name": "Point::x", "owner": "Point"})
	if got != "duplicate member Point::x in Point" {
		t.Fatalf("unexpected message: %q", got)
	}
	// unfilled placeholders are dropped
	if got := T("unknown_type", nil); got != "unknown type" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("unknown codes should echo, got %q", got)
	}
}
