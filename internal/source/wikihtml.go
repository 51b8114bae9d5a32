package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fetchHTML downloads the rendered article and collects its paragraph text.
func (w *Wikipedia) fetchHTML(ctx context.Context, title string) (string, error) {
	page := strings.ReplaceAll(title, " ", "_")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/wiki/"+url.PathEscape(page), nil)
	if err != nil {
		return "", err
	}
	body, err := w.fetch.do(ctx, req)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}
	return ArticleParagraphs(doc), nil
}

// ArticleParagraphs returns the text of every <p> inside the article body
// (.mw-parser-output), one paragraph per line. Footnote markers are skipped.
func ArticleParagraphs(doc *html.Node) string {
	var paras []string
	var walk func(n *html.Node, inArticle bool)
	walk = func(n *html.Node, inArticle bool) {
		if n.Type == html.ElementNode {
			if hasClass(n, "mw-parser-output") {
				inArticle = true
			}
			if inArticle && n.DataAtom == atom.P {
				if t := strings.TrimSpace(nodeText(n)); t != "" {
					paras = append(paras, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inArticle)
		}
	}
	walk(doc, false)
	return strings.Join(paras, "\n")
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Style || n.DataAtom == atom.Script {
				return
			}
			if n.DataAtom == atom.Sup && hasClass(n, "reference") {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
