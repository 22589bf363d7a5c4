package site

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/logfields"
)

// Values of site.on_broken_links.
const (
	BrokenLinksThrow  = "throw"
	BrokenLinksWarn   = "warn"
	BrokenLinksIgnore = "ignore"
)

// BrokenLink is an internal link whose target is not in the output tree.
type BrokenLink struct {
	Page string `json:"page"`
	URL  string `json:"url"`
	Tag  string `json:"tag"`
}

// linkAttrs lists the attribute holding a link for each checked element.
var linkAttrs = map[atom.Atom]string{
	atom.A:      "href",
	atom.Link:   "href",
	atom.Img:    "src",
	atom.Script: "src",
	atom.Source: "src",
	atom.Video:  "src",
	atom.Audio:  "src",
	atom.Iframe: "src",
}

// stageLinks checks that every internal link in the rendered pages points
// at a file in the output tree.
func stageLinks(ctx context.Context, bs *buildState) error {
	mode := bs.cfg.Site.OnBrokenLinks
	if mode == BrokenLinksIgnore {
		return nil
	}

	pages, err := findPages(bs.outputDir)
	if err != nil {
		return err
	}

	checker := &linkChecker{
		root:     bs.outputDir,
		host:     bs.cfg.SiteHostname(),
		basePath: bs.cfg.Site.BaseURL,
	}

	results := make([][]BrokenLink, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.builder.concurrency)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			broken, err := checker.checkFile(page)
			results[i] = broken
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	broken := slices.Concat(results...)
	bs.report.BrokenLinks = broken
	if len(broken) == 0 {
		return nil
	}

	urls := make([]string, 0, len(broken))
	for _, b := range broken {
		bs.logger.Warn("Broken link", logfields.Page(b.Page), "url", b.URL, "tag", b.Tag)
		urls = append(urls, b.Page+" -> "+b.URL)
	}
	eb := errors.ValidationError("broken links found").
		WithContext("count", len(broken)).
		WithContext("links", strings.Join(urls, "; "))
	if mode == BrokenLinksWarn {
		bs.logger.Warn("Broken links left in place", logfields.Error(eb.Warning().Build()))
		return nil
	}
	return eb.Build()
}

type linkChecker struct {
	root     string
	host     string
	basePath string
}

func (c *linkChecker) checkFile(page string) ([]BrokenLink, error) {
	f, err := os.Open(filepath.Clean(page))
	if err != nil {
		return nil, pageError(err, "failed to open page", page)
	}
	defer func() {
		_ = f.Close() // read-only
	}()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, pageError(err, "failed to parse page", page)
	}

	rel, err := filepath.Rel(c.root, page)
	if err != nil {
		rel = page
	}
	rel = filepath.ToSlash(rel)

	var broken []BrokenLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if key, ok := linkAttrs[n.DataAtom]; ok {
				if link := attrValue(n, key); link != "" && !c.exists(rel, link) {
					broken = append(broken, BrokenLink{Page: rel, URL: link, Tag: n.Data})
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return broken, nil
}

// exists reports whether link, found on the page at pageRel, resolves to a
// file in the output tree. Links that leave the site count as existing.
func (c *linkChecker) exists(pageRel, link string) bool {
	if strings.HasPrefix(link, "#") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		return true // mailto:, tel:, data:, javascript:
	}
	if u.Host != "" && u.Hostname() != c.host {
		return true
	}
	if u.Path == "" {
		return true
	}

	var target string
	if strings.HasPrefix(u.Path, "/") {
		base := "/" + strings.Trim(c.basePath, "/")
		p := u.Path
		if base != "/" {
			if p != base && !strings.HasPrefix(p, base+"/") {
				return false
			}
			p = strings.TrimPrefix(p, base)
		}
		target = path.Clean("/" + p)
	} else {
		target = path.Clean(path.Join("/", path.Dir(pageRel), u.Path))
	}

	full := filepath.Join(c.root, filepath.FromSlash(target))
	for _, candidate := range []string{full, filepath.Join(full, "index.html"), full + ".html"} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
