package pipeline

import "strings"

// fenceState tracks whether a line scanner is inside a fenced code block.
type fenceState struct {
	marker byte
	length int
}

func (f *fenceState) open() bool {
	return f.length > 0
}

// step consumes one line and reports whether that line belongs to a fence,
// including the opening and closing fence lines themselves.
func (f *fenceState) step(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return f.open()
	}
	marker, n := fenceRun(trimmed)
	if f.open() {
		if marker == f.marker && n >= f.length && strings.TrimSpace(trimmed[n:]) == "" {
			f.marker, f.length = 0, 0
		}
		return true
	}
	if n >= 3 {
		if marker == '`' && strings.ContainsRune(trimmed[n:], '`') {
			return false
		}
		f.marker, f.length = marker, n
		return true
	}
	return false
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

// mapProse applies fn to every run of lines outside fenced code blocks.
// Fence content is returned untouched.
func mapProse(markdown string, fn func(string) string) string {
	lines := strings.SplitAfter(markdown, "\n")
	var (
		out   strings.Builder
		prose strings.Builder
		fence fenceState
	)
	flush := func() {
		if prose.Len() > 0 {
			out.WriteString(fn(prose.String()))
			prose.Reset()
		}
	}
	for _, line := range lines {
		if fence.step(strings.TrimRight(line, "\r\n")) {
			flush()
			out.WriteString(line)
			continue
		}
		prose.WriteString(line)
	}
	flush()
	return out.String()
}

// eachProse calls fn with every run of lines outside fenced code blocks.
func eachProse(markdown string, fn func(string)) {
	mapProse(markdown, func(s string) string {
		fn(s)
		return s
	})
}
