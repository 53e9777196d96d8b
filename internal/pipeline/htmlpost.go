package pipeline

import (
	"context"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// taskMarkerPattern matches a leading "[ ]", "[x]" or "[X]" task marker.
var taskMarkerPattern = regexp.MustCompile(`^\s*\[([ xX])\]\s+`)

// headingLevels maps heading atoms to their level.
var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3,
	atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// HTMLPostProcessor finalizes the HTML fragment rendered for one document.
type HTMLPostProcessor interface {
	PostProcess(ctx context.Context, fragment, docID string) (string, error)
}

// DOMPostProcessor walks the parsed fragment to apply task checkboxes and
// namespaced heading ids.
type DOMPostProcessor struct{}

// PostProcess turns list items starting with a task marker into disabled
// checkboxes and gives every heading the id "{docID}--{slug}".
func (p *DOMPostProcessor) PostProcess(ctx context.Context, fragment, docID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(fragment)
	if err != nil {
		return "", err
	}

	w := &domWalk{docID: docID, ids: NewHeadingIDs()}
	w.walk(doc)

	return renderHTML(doc, isFragment)
}

// parseHTML parses HTML content, handling both full documents and fragments.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the tree back to a string.
// Fragments render their children only, without an <html><body> wrapper.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

type domWalk struct {
	docID string
	ids   *HeadingIDs
}

func (w *domWalk) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if level, ok := headingLevels[n.DataAtom]; ok {
			slug := w.ids.Next(textContent(n), level)
			setAttr(n, "id", Anchor(w.docID, slug))
		} else if n.DataAtom == atom.Li {
			convertTaskMarker(n)
		}
		w.namespaceFootnote(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// namespaceFootnote prefixes footnote ids and back-references with the
// document id so footnotes from different documents never collide.
func (w *domWalk) namespaceFootnote(n *html.Node) {
	for i, a := range n.Attr {
		switch {
		case a.Key == "id" && isFootnoteID(a.Val):
			n.Attr[i].Val = Anchor(w.docID, a.Val)
		case a.Key == "href" && strings.HasPrefix(a.Val, "#") && isFootnoteID(a.Val[1:]):
			n.Attr[i].Val = "#" + Anchor(w.docID, a.Val[1:])
		}
	}
}

func isFootnoteID(id string) bool {
	return strings.HasPrefix(id, "fn:") || strings.HasPrefix(id, "fnref")
}

// convertTaskMarker replaces a leading task marker in a list item, tight or
// loose, with a disabled checkbox input.
func convertTaskMarker(li *html.Node) {
	text := li.FirstChild
	for text != nil && text.Type == html.TextNode && strings.TrimSpace(text.Data) == "" {
		text = text.NextSibling
	}
	if text != nil && text.Type == html.ElementNode && text.DataAtom == atom.P {
		text = text.FirstChild
	}
	if text == nil || text.Type != html.TextNode {
		return
	}
	m := taskMarkerPattern.FindStringSubmatch(text.Data)
	if m == nil {
		return
	}

	input := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Input,
		Data:     "input",
		Attr: []html.Attribute{
			{Key: "type", Val: "checkbox"},
			{Key: "disabled", Val: ""},
		},
	}
	if m[1] != " " {
		input.Attr = append(input.Attr, html.Attribute{Key: "checked", Val: ""})
	}
	text.Data = " " + text.Data[len(m[0]):]
	text.Parent.InsertBefore(input, text)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// pathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
