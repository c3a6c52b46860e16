package gmaps

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markup knows which style classes carry business names and review summaries
// on the search results page. It is the only place coupled to the site's HTML.
type Markup struct {
	NameClass   string
	ReviewClass string
}

// Extract returns the trimmed text of every name element and every review
// element in document order.
func (m Markup) Extract(html string) (names, reviews []string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("gmaps: parse html: %w", err)
	}
	return texts(doc, m.NameClass), texts(doc, m.ReviewClass), nil
}

func texts(doc *goquery.Document, class string) []string {
	sel := classSelector(class)
	if sel == "" {
		return nil
	}
	var out []string
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// classSelector turns "a b" into ".a.b".
func classSelector(class string) string {
	fields := strings.Fields(class)
	if len(fields) == 0 {
		return ""
	}
	return "." + strings.Join(fields, ".")
}
