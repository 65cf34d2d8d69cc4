// Package markdown renders blog markdown to HTML and builds the heading
// table of contents shown beside published posts.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// TOCItem is one heading in a rendered document.
type TOCItem struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Rendered is the HTML body plus its table of contents.
type Rendered struct {
	HTML string    `json:"html"`
	TOC  []TOCItem `json:"toc"`
}

// Raw HTML in the source is escaped because WithUnsafe is not set.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

var (
	anchorSpaces   = regexp.MustCompile(`[\s_]+`)
	anchorDisallow = regexp.MustCompile(`[^a-z0-9가-힣-]`)
	anchorDashes   = regexp.MustCompile(`-+`)
)

// Render converts markdown to HTML and assigns anchor ids to h2-h6.
// POST: Every TOC entry's ID is unique within the document
func Render(source string) (Rendered, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return Rendered{}, fmt.Errorf("render markdown: %w", err)
	}
	toc, html, err := TableOfContents(buf.String())
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{HTML: html, TOC: toc}, nil
}

// TableOfContents collects h2-h6 headings, setting an id on those that
// lack one, and returns the rewritten HTML.
func TableOfContents(html string) ([]TOCItem, string, error) {
	items := []TOCItem{}
	if strings.TrimSpace(html) == "" {
		return items, html, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, html, fmt.Errorf("parse html: %w", err)
	}

	used := make(map[string]int)
	doc.Find("h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		id, ok := s.Attr("id")
		if !ok || id == "" {
			id = anchorID(text, len(items))
		}
		if n := used[id]; n > 0 {
			used[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n)
		} else {
			used[id] = 1
		}
		s.SetAttr("id", id)
		items = append(items, TOCItem{ID: id, Level: int(goquery.NodeName(s)[1] - '0'), Text: text})
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return items, html, fmt.Errorf("serialize html: %w", err)
	}
	return items, out, nil
}

func anchorID(text string, index int) string {
	id := strings.ToLower(text)
	id = anchorSpaces.ReplaceAllString(id, "-")
	id = anchorDisallow.ReplaceAllString(id, "")
	id = strings.Trim(anchorDashes.ReplaceAllString(id, "-"), "-")
	if id == "" {
		id = fmt.Sprintf("heading-%d", index)
	}
	return id
}
