package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrComposeRender indicates the document template failed to execute.
var ErrComposeRender = errors.New("document template rendering failed")

// HighlightStyle is the chroma style used for code block colors.
const HighlightStyle = "github"

// ComposeOptions selects which source metadata appears in section headers.
type ComposeOptions struct {
	IncludeFileName   bool
	IncludeSourcePath bool
	Lang              string
}

// Rendered is a prepared document together with its HTML body.
type Rendered struct {
	Prepared
	Body string
}

// Composer assembles rendered documents into one printable HTML document.
type Composer struct {
	tmpl *template.Template
	css  string
}

// section is the template view of one document.
type section struct {
	DocID      string
	Number     int
	Title      string
	Chips      []string
	Body       template.HTML
	BreakAfter bool
}

type page struct {
	Lang     string
	Title    string
	CSS      template.CSS
	Sections []section
}

// NewComposer parses the document template and prepares the stylesheet.
// The chroma highlight classes are appended to css.
func NewComposer(tmplContent, css string) (*Composer, error) {
	tmpl, err := template.New("document").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	return &Composer{tmpl: tmpl, css: css + highlightCSS()}, nil
}

// Compose renders one section per document, numbered from 1, each with a
// page break after it except the last.
func (c *Composer) Compose(ctx context.Context, title string, docs []Rendered, opts ComposeOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}
	data := page{
		Lang:     lang,
		Title:    title,
		CSS:      template.CSS(sanitizeCSS(c.css)), // #nosec G203 -- stylesheet comes from trusted assets
		Sections: make([]section, len(docs)),
	}
	for i, d := range docs {
		data.Sections[i] = section{
			DocID:      d.DocID,
			Number:     i + 1,
			Title:      sectionTitle(d.Prepared),
			Chips:      metaChips(d.Document, opts),
			Body:       template.HTML(d.Body), // #nosec G203 -- produced by goldmark with raw HTML disabled
			BreakAfter: i < len(docs)-1,
		}
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrComposeRender, err)
	}
	return buf.String(), nil
}

func sectionTitle(d Prepared) string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	if d.HasSource() {
		return TitleFromPath(d.SourcePath)
	}
	return d.DocID
}

func metaChips(d Document, opts ComposeOptions) []string {
	if !d.HasSource() {
		return nil
	}
	var chips []string
	if opts.IncludeFileName {
		chips = append(chips, d.FileName())
	}
	if opts.IncludeSourcePath {
		chips = append(chips, d.SourcePath)
	}
	return chips
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// highlightCSS generates the stylesheet for chroma token classes.
func highlightCSS() string {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(HighlightStyle)); err != nil {
		return ""
	}
	return buf.String()
}
