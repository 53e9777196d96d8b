package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

const (
	// DiagramLanguage is the fence info string rendered as a diagram container.
	DiagramLanguage = "mermaid"

	// DiagramPlaceholder opens every diagram container in rendered HTML.
	// Escaped source text can never produce it.
	DiagramPlaceholder = `<div class="mermaid">`
)

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with tables, strikethrough,
// autolinks, footnotes, emoji shortcodes, hard line breaks and syntax
// highlighting. Raw HTML in the source is escaped, never passed through.
// Task list items are left as text and turned into checkboxes later by the
// DOMPostProcessor.
func NewGoldmarkConverter() *GoldmarkConverter {
	rendererOpts := []html.Option{
		html.WithHardWraps(),
		html.WithXHTML(),
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.Footnote,
			emoji.Emoji,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			renderer.WithNodeRenderers(
				util.Prioritized(newExportNodeRenderer(rendererOpts...), 100),
			),
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// nodeStrategy wraps the renderer a node kind would otherwise use.
type nodeStrategy func(fallback renderer.NodeRendererFunc) renderer.NodeRendererFunc

// exportNodeRenderer overrides selected node kinds and delegates the rest
// of their cases to the stock renderers.
type exportNodeRenderer struct {
	fallbacks  map[ast.NodeKind]renderer.NodeRendererFunc
	strategies map[ast.NodeKind]nodeStrategy
}

func newExportNodeRenderer(opts ...html.Option) *exportNodeRenderer {
	r := &exportNodeRenderer{
		fallbacks: make(map[ast.NodeKind]renderer.NodeRendererFunc),
		strategies: map[ast.NodeKind]nodeStrategy{
			ast.KindFencedCodeBlock: diagramFenceStrategy,
			ast.KindImage:           inlineImageStrategy,
			ast.KindLink:            fileLinkStrategy,
		},
	}
	capture := funcTable(r.fallbacks)
	html.NewRenderer(opts...).RegisterFuncs(capture)
	highlighting.NewHTMLRenderer(
		highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
	).RegisterFuncs(capture)
	return r
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *exportNodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	for kind, strategy := range r.strategies {
		reg.Register(kind, strategy(r.fallbacks[kind]))
	}
}

// funcTable records registrations so stock renderers can serve as fallbacks.
// Later registrations win, as they do in goldmark itself.
type funcTable map[ast.NodeKind]renderer.NodeRendererFunc

func (t funcTable) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	t[kind] = fn
}

// diagramFenceStrategy renders ```mermaid fences as a diagram container
// holding the escaped source, for the diagram engine to pick up in the browser.
func diagramFenceStrategy(fallback renderer.NodeRendererFunc) renderer.NodeRendererFunc {
	return func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		n := node.(*ast.FencedCodeBlock)
		if !isDiagramFence(n, source) {
			return fallback(w, source, node, entering)
		}
		if !entering {
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(DiagramPlaceholder)
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
		}
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
}

func isDiagramFence(n *ast.FencedCodeBlock, source []byte) bool {
	if n.Info == nil {
		return false
	}
	info := strings.TrimSpace(string(n.Info.Segment.Value(source)))
	return strings.EqualFold(info, DiagramLanguage)
}

// inlineImageStrategy renders images whose destination is an embedded
// data:image/ payload. Other destinations go through the stock renderer,
// which refuses data URIs unless unsafe output is enabled.
func inlineImageStrategy(fallback renderer.NodeRendererFunc) renderer.NodeRendererFunc {
	return func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		n := node.(*ast.Image)
		if !IsInlineImageData(n.Destination) {
			return fallback(w, source, node, entering)
		}
		if !entering {
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(`<img src="`)
		_, _ = w.Write(util.EscapeHTML(n.Destination))
		_, _ = w.WriteString(`" alt="`)
		_, _ = w.Write(util.EscapeHTML(plainText(n, source)))
		_ = w.WriteByte('"')
		if n.Title != nil {
			_, _ = w.WriteString(` title="`)
			_, _ = w.Write(util.EscapeHTML(n.Title))
			_ = w.WriteByte('"')
		}
		_, _ = w.WriteString(" />")
		return ast.WalkSkipChildren, nil
	}
}

// fileLinkStrategy renders file:// links, which the stock renderer blanks as
// unsafe. The Rewriter emits them for documents outside the export.
func fileLinkStrategy(fallback renderer.NodeRendererFunc) renderer.NodeRendererFunc {
	return func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		n := node.(*ast.Link)
		if !isFileURL(n.Destination) {
			return fallback(w, source, node, entering)
		}
		if !entering {
			_, _ = w.WriteString("</a>")
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(`<a href="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
		_ = w.WriteByte('"')
		if n.Title != nil {
			_, _ = w.WriteString(` title="`)
			_, _ = w.Write(util.EscapeHTML(n.Title))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
		return ast.WalkContinue, nil
	}
}

func isFileURL(dest []byte) bool {
	return len(dest) >= len("file://") && strings.EqualFold(string(dest[:len("file://")]), "file://")
}

// plainText flattens the inline children of n.
func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(plainText(c, source))
		}
	}
	return buf.Bytes()
}
