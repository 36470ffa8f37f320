package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/koinecards/internal/models"
)

func TestParse_FullCard(t *testing.T) {
	raw := "Hello\nDOMAIN: Greetings\nCARD: 1\nSTATUS: draft\nDATE: 2024-01-02\n--- CARD TEXT BELOW ---\nBody one\nline two\n"
	got := Parse(raw, "01_a.txt")
	want := models.Card{
		ID:       "01_a.txt",
		Filename: "01_a.txt",
		Title:    "Hello",
		Domain:   "Greetings",
		Meta:     "1\ndraft\n2024-01-02",
		Body:     "Body one\nline two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DomainTrimmed(t *testing.T) {
	cases := map[string]string{
		"DOMAIN: X":          "X",
		"DOMAIN:X":           "X",
		"DOMAIN:   spaced  ": "spaced",
		"DOMAIN:\tΛόγος ":    "Λόγος",
	}
	for line, want := range cases {
		c := Parse("title\n"+line+"\nbody", "f.txt")
		if c.Domain != want {
			t.Errorf("domain for %q = %q, want %q", line, c.Domain, want)
		}
	}
}

func TestParse_DefaultDomain(t *testing.T) {
	c := Parse("Only a title\nand text", "x.txt")
	if c.Domain != models.DefaultDomain {
		t.Errorf("domain = %q, want %q", c.Domain, models.DefaultDomain)
	}
}

func TestParse_EmptyDomainValueKept(t *testing.T) {
	c := Parse("t\nDOMAIN:   \n", "x.txt")
	if c.Domain != "" {
		t.Errorf("domain = %q, want empty", c.Domain)
	}
}

func TestParse_FirstHeaderWins(t *testing.T) {
	c := Parse("t\nDOMAIN: first\nDOMAIN: second\n", "x.txt")
	if c.Domain != "first" {
		t.Errorf("domain = %q, want first", c.Domain)
	}
}

func TestParse_IndentedHeaderIgnored(t *testing.T) {
	c := Parse("t\n  DOMAIN: indented\n", "x.txt")
	if c.Domain != models.DefaultDomain {
		t.Errorf("domain = %q, want default", c.Domain)
	}
}

func TestParse_BodyAfterDivider(t *testing.T) {
	raw := "T\nDOMAIN: D\n   --- CARD TEXT BELOW ---  \n\n  body text  \n\n"
	c := Parse(raw, "x.txt")
	if c.Body != "body text" {
		t.Errorf("body = %q, want %q", c.Body, "body text")
	}
}

func TestParse_OnlyFirstDividerSplits(t *testing.T) {
	raw := "T\n--- CARD TEXT BELOW ---\na\n--- CARD TEXT BELOW ---\nb"
	c := Parse(raw, "x.txt")
	if c.Body != "a\n--- CARD TEXT BELOW ---\nb" {
		t.Errorf("body = %q", c.Body)
	}
}

func TestParse_NoDividerWholeText(t *testing.T) {
	raw := "\r\n  Title\r\nDOMAIN: D\r\nplain\r\n\r\n"
	c := Parse(raw, "x.txt")
	want := "Title\nDOMAIN: D\nplain"
	if c.Body != want {
		t.Errorf("body = %q, want %q", c.Body, want)
	}
	if c.Title != "  Title" {
		t.Errorf("title = %q, want first non-blank line as written", c.Title)
	}
}

func TestParse_BlankTextUsesFilename(t *testing.T) {
	c := Parse(" \n\t\n", "07_empty.txt")
	if c.Title != "07_empty.txt" {
		t.Errorf("title = %q, want filename", c.Title)
	}
	if c.Body != "" {
		t.Errorf("body = %q, want empty", c.Body)
	}
	if c.Meta != "" {
		t.Errorf("meta = %q, want empty", c.Meta)
	}
}

func TestParse_MetaSkipsEmptyValues(t *testing.T) {
	c := Parse("t\nDATE: 2025\nCARD:\nSTATUS: ok\n", "x.txt")
	if c.Meta != "ok\n2025" {
		t.Errorf("meta = %q, want %q", c.Meta, "ok\n2025")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line  string
		kind  lineKind
		value string
	}{
		{"DOMAIN: a", domainLine, "a"},
		{"CARD: 3 ", cardLine, "3"},
		{"STATUS:done", statusLine, "done"},
		{"DATE: today", dateLine, "today"},
		{" --- CARD TEXT BELOW --- ", dividerLine, ""},
		{"anything", plainLine, ""},
		{"domain: lower", plainLine, ""},
	}
	for _, tt := range tests {
		kind, value := classify(tt.line)
		if kind != tt.kind || value != tt.value {
			t.Errorf("classify(%q) = (%v, %q), want (%v, %q)", tt.line, kind, value, tt.kind, tt.value)
		}
	}
}
