package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "plugins", Stage("plugins")},
		{"Plugin", KeyPlugin, "catppuccin", Plugin("catppuccin")},
		{"Path", KeyPath, "sidebar[0]", Path("sidebar[0]")},
		{"Slug", KeySlug, "other/aboutus", Slug("other/aboutus")},
		{"Block", KeyBlock, "codeblock", Block("codeblock")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if got := Position(3); got.Key != KeyPosition || got.Value.Int64() != 3 {
		t.Fatalf("unexpected position attr: %v", got)
	}
	if got := Count(7); got.Key != KeyCount || got.Value.Int64() != 7 {
		t.Fatalf("unexpected count attr: %v", got)
	}
	if got := DurationMS(1.5); got.Key != KeyDurationMS || got.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", got)
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil); got.Value.String() != "" {
		t.Fatalf("nil error should yield empty value, got %q", got.Value.String())
	}
	if got := Error(errors.New("boom")); got.Key != KeyError || got.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", got)
	}
}
