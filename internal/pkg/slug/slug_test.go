package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Hello World":             "hello-world",
		"  Café Crème Airdrop!! ": "cafe-creme-airdrop",
		"Token_2.0 -- launch":     "token-2-0-launch",
		"$$$":                     "item",
		"Ünïcödé Présale 2026":    "unicode-presale-2026",
	}
	for in, want := range tests {
		if got := Make(in); got != want {
			t.Fatalf("Make(%q) = %q want %q", in, got, want)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	got := Make(strings.Repeat("ab ", 60))
	if len(got) > maxLength {
		t.Fatalf("slug too long: %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("slug must not end with dash: %q", got)
	}
}

func TestWithSuffix(t *testing.T) {
	if WithSuffix("x", 1) != "x" || WithSuffix("x", 3) != "x-3" {
		t.Fatalf("unexpected suffixing")
	}
}
