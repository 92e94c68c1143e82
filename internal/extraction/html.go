package extraction

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const htmlBlocks = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,td,th,dt,dd,figcaption"

// HTML reads the visible text of an HTML document, one block per line.
// Headings are preceded by a blank line so they are detected as section
// titles.
type HTML struct{}

func (HTML) Name() string { return MethodHTML }

func (HTML) Extract(_ context.Context, data []byte) (string, error) {
	if !looksLikeHTML(data) {
		return "", ErrNotApplicable
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript,nav,template").Remove()

	root := doc.Selection
	for _, selector := range []string{"main", "article", "body"} {
		if sel := doc.Find(selector); sel.Length() > 0 {
			root = sel.First()
			break
		}
	}

	var b strings.Builder
	root.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(htmlBlocks).Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if tag := goquery.NodeName(s); len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
			b.WriteString("\n")
		}
		b.WriteString(text)
		b.WriteString("\n")
	})
	if b.Len() == 0 {
		return strings.TrimSpace(root.Text()), nil
	}
	return b.String(), nil
}
