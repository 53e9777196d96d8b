package pipeline

import (
	"reflect"
	"testing"
)

func TestDocumentLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		want     []string
	}{
		{
			name:     "relative document links in order",
			markdown: "See [b](b.md) and [c](sub/c.markdown).",
			want:     []string{"b.md", "sub/c.markdown"},
		},
		{
			name:     "fragment stripped",
			markdown: "[setup](guide.md#install)",
			want:     []string{"guide.md"},
		},
		{
			name:     "angle brackets and title",
			markdown: `[x](<notes.mdx> "Notes")`,
			want:     []string{"notes.mdx"},
		},
		{
			name:     "extension is case insensitive",
			markdown: "[r](README.MD) [t](todo.txt)",
			want:     []string{"README.MD", "todo.txt"},
		},
		{
			name:     "images external and non documents skipped",
			markdown: "![img](pic.md) [web](https://example.com/a.md) [pdf](a.pdf) [top](#intro)",
			want:     nil,
		},
		{
			name:     "empty label skipped",
			markdown: "[](hidden.md)",
			want:     nil,
		},
		{
			name:     "links inside fences ignored",
			markdown: "```\n[code](code.md)\n```\n[real](real.md)\n",
			want:     []string{"real.md"},
		},
		{
			name:     "duplicates kept",
			markdown: "[a](a.md) [again](a.md#x)",
			want:     []string{"a.md", "a.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DocumentLinks(tt.markdown)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DocumentLinks() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestIsExternal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want bool
	}{
		{"https://example.com", true},
		{"HTTP://EXAMPLE.COM", true},
		{"mailto:a@b.c", true},
		{"tel:+100", true},
		{"data:image/png;base64,AA", true},
		{"file:///tmp/a.md", true},
		{"docs/a.md", false},
		{"#anchor", false},
		{"ftp://host/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()
			if got := IsExternal(tt.href); got != tt.want {
				t.Errorf("IsExternal(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"a.md", "a.md"},
		{"  a.md  ", "a.md"},
		{`a.md "Title"`, "a.md"},
		{"<a.md>", "a.md"},
		{`<notes.mdx> "Notes"`, "notes.mdx"},
		{`<my notes.md> 'T'`, "my notes.md"},
		{"<a.md", "<a.md"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := parseTarget(tt.raw); got != tt.want {
			t.Errorf("parseTarget(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
