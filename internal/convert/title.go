package convert

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentTitle returns the document <title>, falling back to the first <h1>.
// Whitespace runs are collapsed.
func DocumentTitle(doc []byte) (string, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return "", err
	}
	for _, sel := range []string{"title", "h1"} {
		if title := strings.Join(strings.Fields(d.Find(sel).First().Text()), " "); title != "" {
			return title, nil
		}
	}
	return "", nil
}
