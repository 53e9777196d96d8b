package pipeline

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestRewriter_Rewrite(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}

	docs := AssignDocIDs([]Document{
		{SourcePath: "/docs/a.md"},
		{SourcePath: "/docs/sub/b.md"},
	})
	rw := NewRewriter(NewNamespace(docs))
	a := docs[0]

	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{name: "namespace hit", markdown: "[B](sub/b.md)", want: "[B](#b-2)"},
		{name: "namespace hit with fragment", markdown: "[B](sub/b.md#Setup-Guide)", want: "[B](#b-2--setup-guide)"},
		{name: "encoded fragment decoded", markdown: "[B](sub/b.md#Caf%C3%A9)", want: "[B](#b-2--cafe)"},
		{name: "in-document anchor", markdown: "[top](#Intro)", want: "[top](#a-1--intro)"},
		{name: "bare hash points at document", markdown: "[top](#)", want: "[top](#a-1)"},
		{name: "external untouched", markdown: `[w](https://example.com "t")`, want: `[w](https://example.com "t")`},
		{name: "image untouched", markdown: "![p](sub/b.md)", want: "![p](sub/b.md)"},
		{name: "miss becomes file url", markdown: "[o](../other.md)", want: "[o](file:///other.md)"},
		{name: "miss keeps fragment", markdown: "[o](notes.txt#part)", want: "[o](file:///docs/notes.txt#part)"},
		{name: "no links is identity", markdown: "plain *text*\n", want: "plain *text*\n"},
		{name: "fenced links untouched", markdown: "~~~\n[B](sub/b.md)\n~~~", want: "~~~\n[B](sub/b.md)\n~~~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := a
			doc.Markdown = tt.markdown
			got := rw.Rewrite(context.Background(), doc)
			if got.Markdown != tt.want {
				t.Errorf("Rewrite() = %q, want %q", got.Markdown, tt.want)
			}
		})
	}
}

func TestRewriter_Rewrite_Unsaved(t *testing.T) {
	t.Parallel()

	docs := AssignDocIDs([]Document{{Markdown: "[t](#Top) [b](b.md)"}})
	got := NewRewriter(NewNamespace(docs)).Rewrite(context.Background(), docs[0])

	want := "[t](#doc-1--top) [b](b.md)"
	if got.Markdown != want {
		t.Errorf("Rewrite() = %q, want %q", got.Markdown, want)
	}
}

func TestRewriter_OutsideLinkRendersAsFileURL(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}

	docs := AssignDocIDs([]Document{{SourcePath: "/docs/a.md", Markdown: "[o](../other.md)"}})
	rewritten := NewRewriter(NewNamespace(docs)).Rewrite(context.Background(), docs[0])

	got, err := NewGoldmarkConverter().ToHTML(context.Background(), rewritten.Markdown)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if want := `<a href="file:///other.md">o</a>`; !strings.Contains(got, want) {
		t.Errorf("ToHTML() = %q, want %q", got, want)
	}
}
