package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestDOMPostProcessor_PostProcess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		html         string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "headings namespaced and deduplicated",
			html:         "<h1>Intro</h1><h2>Intro</h2>",
			wantContains: []string{`<h1 id="a-1--intro">`, `<h2 id="a-1--intro-2">`},
		},
		{
			name:         "empty heading falls back to level",
			html:         "<h3></h3>",
			wantContains: []string{`<h3 id="a-1--heading-3">`},
		},
		{
			name:         "existing id replaced",
			html:         `<h2 id="old">Setup <code>now</code></h2>`,
			wantContains: []string{`id="a-1--setup-now"`},
			wantExcludes: []string{`id="old"`},
		},
		{
			name: "tight task items",
			html: "<ul><li>[ ] todo</li><li>[x] done</li><li>[X] also</li></ul>",
			wantContains: []string{
				`<li><input type="checkbox" disabled=""/> todo</li>`,
				`<li><input type="checkbox" disabled="" checked=""/> done</li>`,
				`<li><input type="checkbox" disabled="" checked=""/> also</li>`,
			},
		},
		{
			name:         "loose task item",
			html:         "<ul><li>\n<p>[x] done</p>\n</li></ul>",
			wantContains: []string{`<p><input type="checkbox" disabled="" checked=""/> done</p>`},
		},
		{
			name:         "not a task marker",
			html:         "<ul><li>[y] nope</li><li>[ ]tight</li></ul>",
			wantContains: []string{"<li>[y] nope</li>", "<li>[ ]tight</li>"},
			wantExcludes: []string{"<input"},
		},
		{
			name:         "footnotes namespaced",
			html:         `<sup id="fnref:1"><a href="#fn:1">1</a></sup><li id="fn:1"><a href="#fnref:1">back</a></li>`,
			wantContains: []string{`id="a-1--fnref:1"`, `href="#a-1--fn:1"`, `id="a-1--fn:1"`, `href="#a-1--fnref:1"`},
		},
		{
			name:         "diagram text stays escaped",
			html:         "<div class=\"mermaid\">A--&gt;B</div>",
			wantContains: []string{"A--&gt;B"},
		},
	}

	p := &DOMPostProcessor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := p.PostProcess(context.Background(), tt.html, "a-1")
			if err != nil {
				t.Fatalf("PostProcess() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("PostProcess() missing %q in:\n%s", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("PostProcess() should not contain %q in:\n%s", exclude, got)
				}
			}
		})
	}
}

func TestPathToFileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/docs/a.md", "file:///docs/a.md"},
		{"/docs/my notes.md", "file:///docs/my%20notes.md"},
	}

	for _, tt := range tests {
		if got := pathToFileURL(tt.path); got != tt.want {
			t.Errorf("pathToFileURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
