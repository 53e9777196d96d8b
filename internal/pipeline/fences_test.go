package pipeline

import (
	"strings"
	"testing"
)

func TestMapProse(t *testing.T) {
	t.Parallel()

	upper := func(s string) string { return strings.ToUpper(s) }

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fences", input: "a\nb\n", want: "A\nB\n"},
		{name: "backtick fence", input: "a\n```go\nx\n```\nb", want: "A\n```go\nx\n```\nB"},
		{name: "tilde fence", input: "~~~\nx\n~~~\n", want: "~~~\nx\n~~~\n"},
		{name: "longer closing fence", input: "```\nx\n`````\ny", want: "```\nx\n`````\nY"},
		{name: "shorter fence does not close", input: "````\nx\n```\ny\n````\nz", want: "````\nx\n```\ny\n````\nZ"},
		{name: "mismatched marker does not close", input: "```\nx\n~~~\ny\n```\nz", want: "```\nx\n~~~\ny\n```\nZ"},
		{name: "unclosed fence runs to end", input: "a\n```\nx\ny", want: "A\n```\nx\ny"},
		{name: "inline code span is not a fence", input: "```code``` here", want: "```CODE``` HERE"},
		{name: "indented four spaces is not a fence", input: "    ```\nx", want: "    ```\nX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := mapProse(tt.input, upper); got != tt.want {
				t.Errorf("mapProse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
