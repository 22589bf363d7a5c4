package site

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/plugin"
)

// stageInject adds the merged tags to every HTML page under the output
// directory. Pages are rewritten concurrently; the plan is read-only.
func stageInject(ctx context.Context, bs *buildState) error {
	if err := requireOutputDir(bs.outputDir); err != nil {
		return err
	}
	pages, err := findPages(bs.outputDir)
	if err != nil {
		return err
	}
	bs.report.PagesTotal = len(pages)

	if bs.tags.IsEmpty() {
		bs.logger.Info("No tags to inject", logfields.Pages(len(pages)))
		bs.report.PagesSkipped = len(pages)
		return nil
	}

	plan, err := newInjectionPlan(bs.tags)
	if err != nil {
		return err
	}

	var injected, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.builder.concurrency)

	for _, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			changed, err := plan.applyFile(page)
			if err != nil {
				return err
			}
			if changed {
				injected.Add(1)
			} else {
				skipped.Add(1)
				bs.logger.Debug("Page already has tags", logfields.Page(page))
			}
			return nil
		})
	}
	err = g.Wait()

	bs.report.PagesInjected = int(injected.Load())
	bs.report.PagesSkipped = int(skipped.Load())
	bs.recorder.AddInjectedPages(bs.report.PagesInjected, bs.report.PagesSkipped)
	if err != nil {
		return err
	}

	bs.logger.Info("Injected tags",
		logfields.Pages(bs.report.PagesInjected),
		slog.Int("skipped", bs.report.PagesSkipped))
	return nil
}

// findPages lists the HTML files under root, sorted.
func findPages(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		b := errors.FileSystemError("output directory not found").WithContext("output", root)
		if err != nil {
			b = errors.WrapError(err, errors.CategoryFileSystem, "output directory not found").WithContext("output", root)
		}
		return nil, b.Build()
	}

	var pages []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isHTML(path) {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan output directory").
			WithContext("output", root).
			Build()
	}
	slices.Sort(pages)
	return pages, nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// fragment is one tag together with its parsed, re-rendered form. The
// canonical form lets a page be checked for the tag regardless of the
// original attribute quoting or whitespace.
type fragment struct {
	raw   string
	canon string
}

// injectionPlan holds the fragments for each insertion point.
type injectionPlan struct {
	head     []fragment
	preBody  []fragment
	postBody []fragment
}

func newInjectionPlan(tags plugin.HTMLTags) (*injectionPlan, error) {
	head, err := parseFragments(tags.HeadTags, atom.Head)
	if err != nil {
		return nil, err
	}
	pre, err := parseFragments(tags.PreBodyTags, atom.Body)
	if err != nil {
		return nil, err
	}
	post, err := parseFragments(tags.PostBodyTags, atom.Body)
	if err != nil {
		return nil, err
	}
	return &injectionPlan{head: head, preBody: pre, postBody: post}, nil
}

func parseFragments(raw []string, parent atom.Atom) ([]fragment, error) {
	ctxNode := &html.Node{Type: html.ElementNode, DataAtom: parent, Data: parent.String()}

	out := make([]fragment, 0, len(raw))
	for _, r := range raw {
		nodes, err := html.ParseFragment(strings.NewReader(r), ctxNode)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryPlugin, "invalid HTML tag").
				Fatal().
				WithContext("tag", r).
				Build()
		}
		canon, err := renderNodes(nodes)
		if err != nil {
			return nil, err
		}
		if canon == "" {
			continue
		}
		out = append(out, fragment{raw: r, canon: canon})
	}
	return out, nil
}

// renderNodes renders nodes back to HTML, dropping whitespace-only text.
func renderNodes(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		if n.Type == html.CommentNode {
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", errors.WrapError(err, errors.CategoryInternal, "failed to render HTML").Build()
		}
	}
	return buf.String(), nil
}

func renderChildren(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return renderNodes(children)
}

// applyFile rewrites one page in place. It reports false and leaves the
// file untouched when every fragment is already present.
func (p *injectionPlan) applyFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, pageError(err, "failed to stat page", path)
	}
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, pageError(err, "failed to read page", path)
	}

	out, changed, err := p.apply(src)
	if err != nil {
		return false, pageError(err, "failed to inject tags", path)
	}
	if !changed {
		return false, nil
	}
	if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return false, pageError(err, "failed to write page", path)
	}
	return true, nil
}

// apply returns src with the missing fragments inserted.
func (p *injectionPlan) apply(src []byte) ([]byte, bool, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, false, err
	}
	headNode, bodyNode := findHeadBody(doc)

	headHTML, err := renderChildren(headNode)
	if err != nil {
		return nil, false, err
	}
	bodyHTML, err := renderChildren(bodyNode)
	if err != nil {
		return nil, false, err
	}

	a := findAnchors(src)
	inserts := []insertion{
		{pos: a.head(), text: missing(p.head, headHTML)},
		{pos: a.preBody(), text: missing(p.preBody, bodyHTML)},
		{pos: a.postBody(len(src)), text: missing(p.postBody, bodyHTML)},
	}

	var buf bytes.Buffer
	buf.Grow(len(src) + 512)
	last, changed := 0, false
	// Stable keeps head before pre-body before post-body at equal offsets.
	slices.SortStableFunc(inserts, func(x, y insertion) int { return x.pos - y.pos })
	for _, ins := range inserts {
		if ins.text == "" {
			continue
		}
		buf.Write(src[last:ins.pos])
		buf.WriteString(ins.text)
		last = ins.pos
		changed = true
	}
	if !changed {
		return src, false, nil
	}
	buf.Write(src[last:])
	return buf.Bytes(), true, nil
}

type insertion struct {
	pos  int
	text string
}

// missing joins the raw form of every fragment whose canonical form does
// not already appear in rendered.
func missing(frags []fragment, rendered string) string {
	var parts []string
	for _, f := range frags {
		if !strings.Contains(rendered, f.canon) {
			parts = append(parts, f.raw)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n") + "\n"
}

func findHeadBody(doc *html.Node) (head, body *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				if head == nil {
					head = n
				}
			case atom.Body:
				if body == nil {
					body = n
				}
			}
		}
		for c := n.FirstChild; c != nil && (head == nil || body == nil); c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return head, body
}

// anchors are byte offsets into the page source; -1 when the tag is absent.
type anchors struct {
	headClose    int // start of </head>
	headCloseEnd int // end of </head>
	bodyOpen     int // start of <body ...>
	bodyOpenEnd  int // end of <body ...>
	bodyClose    int // start of the last </body>
	htmlClose    int // start of the last </html>
}

// findAnchors tokenizes src so that markup inside scripts, comments or
// attribute values is never mistaken for a tag.
func findAnchors(src []byte) anchors {
	a := anchors{-1, -1, -1, -1, -1, -1}
	z := html.NewTokenizer(bytes.NewReader(src))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return a
		}
		start := offset
		offset += len(z.Raw())

		if tt != html.StartTagToken && tt != html.EndTagToken {
			continue
		}
		name, _ := z.TagName()
		switch {
		case tt == html.StartTagToken && atom.Lookup(name) == atom.Body && a.bodyOpen < 0:
			a.bodyOpen, a.bodyOpenEnd = start, offset
		case tt == html.EndTagToken && atom.Lookup(name) == atom.Head && a.headClose < 0:
			a.headClose, a.headCloseEnd = start, offset
		case tt == html.EndTagToken && atom.Lookup(name) == atom.Body:
			a.bodyClose = start
		case tt == html.EndTagToken && atom.Lookup(name) == atom.Html:
			a.htmlClose = start
		}
	}
}

func (a anchors) head() int {
	switch {
	case a.headClose >= 0:
		return a.headClose
	case a.bodyOpen >= 0:
		return a.bodyOpen
	default:
		return 0
	}
}

func (a anchors) preBody() int {
	switch {
	case a.bodyOpenEnd >= 0:
		return a.bodyOpenEnd
	case a.headCloseEnd >= 0:
		return a.headCloseEnd
	default:
		return 0
	}
}

func (a anchors) postBody(size int) int {
	switch {
	case a.bodyClose >= 0:
		return a.bodyClose
	case a.htmlClose >= 0:
		return a.htmlClose
	default:
		return size
	}
}

func pageError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		WithContext("page", path).
		Build()
}
