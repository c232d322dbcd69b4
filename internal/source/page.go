package source

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PageAdapter picks the readable part of a page for one kind of site
type PageAdapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle reports whether this adapter understands pages from rawURL
	CanHandle(rawURL string) bool

	// ContentRoot returns the node whose text is the article body
	ContentRoot(doc *html.Node) *html.Node

	// Skip reports whether an element and its subtree are page chrome
	Skip(n *html.Node) bool
}

// Registry selects the page adapter for a URL
type Registry struct {
	adapters []PageAdapter
	generic  PageAdapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	r := &Registry{generic: genericAdapter{}}
	r.Register(wikipediaAdapter{})
	r.Register(legalAdapter{})
	return r
}

// Register adds an adapter; later registrations are tried after earlier ones
func (r *Registry) Register(a PageAdapter) {
	r.adapters = append(r.adapters, a)
}

// FindAdapter returns the first adapter that handles rawURL, or the generic one
func (r *Registry) FindAdapter(rawURL string) PageAdapter {
	for _, a := range r.adapters {
		if a.CanHandle(rawURL) {
			return a
		}
	}
	return r.generic
}

// PageText holds the extracted visible text of a page
type PageText struct {
	Title   string
	Text    string
	Adapter string
}

// ExtractPageText parses an HTML page and returns its visible text.
// Block elements become paragraph breaks; runs of whitespace inside a
// paragraph collapse to one space.
func (r *Registry) ExtractPageText(body, rawURL string) (*PageText, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	adapter := r.FindAdapter(rawURL)
	root := adapter.ContentRoot(doc)
	if root == nil {
		root = doc
	}

	w := &textWriter{}
	walkText(root, adapter, w)

	return &PageText{
		Title:   pageTitle(doc),
		Text:    w.String(),
		Adapter: adapter.Name(),
	}, nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
	"table": true, "tr": true, "br": true, "hr": true, "dd": true, "dt": true,
	"figcaption": true, "header": true, "footer": true,
}

var chromeElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"svg": true, "template": true, "head": true, "nav": true, "form": true,
	"button": true,
}

func walkText(n *html.Node, adapter PageAdapter, w *textWriter) {
	if n.Type == html.ElementNode {
		if chromeElements[n.Data] || adapter.Skip(n) {
			return
		}
		if blockElements[n.Data] {
			w.breakParagraph()
			defer w.breakParagraph()
		}
	}

	if n.Type == html.TextNode {
		w.writeText(n.Data)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, adapter, w)
	}
}

// textWriter accumulates paragraphs with normalised spacing
type textWriter struct {
	paragraphs []string
	current    strings.Builder
	pendingSp  bool
}

func (w *textWriter) writeText(s string) {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	if len(fields) == 0 {
		if s != "" {
			w.pendingSp = true
		}
		return
	}

	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	for i, field := range fields {
		if w.current.Len() > 0 && (i > 0 || w.pendingSp || unicode.IsSpace(first)) {
			w.current.WriteByte(' ')
		}
		w.current.WriteString(field)
	}
	w.pendingSp = unicode.IsSpace(last)
}

func (w *textWriter) breakParagraph() {
	if p := strings.TrimSpace(w.current.String()); p != "" {
		w.paragraphs = append(w.paragraphs, p)
	}
	w.current.Reset()
	w.pendingSp = false
}

func (w *textWriter) String() string {
	w.breakParagraph()
	return strings.Join(w.paragraphs, "\n\n")
}

func pageTitle(doc *html.Node) string {
	t := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.Join(strings.Fields(t.FirstChild.Data), " ")
}

// genericAdapter reads <article>, then <main>, then <body>
type genericAdapter struct{}

func (genericAdapter) Name() string          { return "generic" }
func (genericAdapter) CanHandle(string) bool { return true }
func (genericAdapter) Skip(n *html.Node) bool {
	switch n.Data {
	case "header", "footer", "aside":
		return true
	}
	return hasClass(n, "advertisement") || getAttribute(n, "aria-hidden") == "true"
}

func (genericAdapter) ContentRoot(doc *html.Node) *html.Node {
	for _, tag := range []string{"article", "main", "body"} {
		if n := findFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == tag
		}); n != nil {
			return n
		}
	}
	return doc
}

// wikipediaAdapter reads the parser output and drops citation markers,
// edit links, infoboxes and navigation boxes
type wikipediaAdapter struct{}

func (wikipediaAdapter) Name() string { return "wikipedia" }

func (wikipediaAdapter) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

func (wikipediaAdapter) ContentRoot(doc *html.Node) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			(hasClass(n, "mw-parser-output") || getAttribute(n, "id") == "mw-content-text")
	})
}

func (wikipediaAdapter) Skip(n *html.Node) bool {
	if n.Data == "sup" && hasClass(n, "reference") {
		return true
	}
	if n.Data == "table" {
		return true
	}
	for _, class := range []string{"mw-editsection", "navbox", "reflist", "hatnote", "thumb", "mw-empty-elt"} {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

// legalDomains host statutes and regulations
var legalDomains = []string{
	"legislation.gov.uk",
	"law.cornell.edu",
	"gov.uk",
	"justice.gov",
	"eur-lex.europa.eu",
}

// legalAdapter reads the body of a statute or regulation page and drops
// breadcrumbs, tables of contents and footnote markers
type legalAdapter struct{}

func (legalAdapter) Name() string { return "legal" }

func (legalAdapter) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, domain := range legalDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	path := strings.ToLower(parsed.Path)
	for _, segment := range []string{"/statute", "/legal", "/law/", "/regulation"} {
		if strings.Contains(path, segment) {
			return true
		}
	}
	return false
}

func (legalAdapter) ContentRoot(doc *html.Node) *html.Node {
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "main" || getAttribute(n, "id") == "content")
	}); n != nil {
		return n
	}
	return genericAdapter{}.ContentRoot(doc)
}

func (legalAdapter) Skip(n *html.Node) bool {
	if n.Data == "sup" {
		return true
	}
	for _, class := range []string{"breadcrumb", "toc", "footnotes", "LegAnnotations"} {
		if hasClass(n, class) {
			return true
		}
	}
	return genericAdapter{}.Skip(n)
}

func hasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(getAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
