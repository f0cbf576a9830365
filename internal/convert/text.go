package convert

import (
	"strconv"
	"strings"

	"github.com/gubarz/tut2nb/internal/notebook"
)

// DefaultDownloadBaseURL resolves relative data/ links
const DefaultDownloadBaseURL = "http://ncsu-geoforall-lab.github.io/geospatial-modeling-course/grass/"

const dataPrefix = "data/"

// TextConverter turns a text block into a markdown cell and collects
// downloadable data links on the way.
type TextConverter struct {
	markup

	baseURL   string
	downloads []string
}

// NewTextConverter creates a converter resolving data links against baseURL
func NewTextConverter(baseURL string) *TextConverter {
	return &TextConverter{baseURL: baseURL}
}

// Downloads returns the absolute URLs of linked data files
func (c *TextConverter) Downloads() []string {
	return c.downloads
}

func (c *TextConverter) Finalize() ([]notebook.Cell, error) {
	w := &markdownWriter{baseURL: c.baseURL}
	if err := Events(strings.NewReader(c.take()), w.handle); err != nil {
		return nil, err
	}
	c.downloads = append(c.downloads, w.downloads...)

	text := strings.TrimSpace(w.out.String())
	if text == "" {
		return nil, nil
	}
	return []notebook.Cell{notebook.NewMarkdownCell(text)}, nil
}

// markdownWriter renders the markup events of one text block
type markdownWriter struct {
	baseURL   string
	out       strings.Builder
	inPre     bool
	link      string
	downloads []string
}

func (w *markdownWriter) handle(ev Event) error {
	switch ev.Kind {
	case EventText:
		w.out.WriteString(ev.Data)
	case EventEntity:
		if ev.Name == "ndash" {
			w.out.WriteString("--")
		} else {
			w.out.WriteString(ev.Data)
		}
	case EventStartTag:
		w.startTag(ev)
	case EventEndTag:
		w.endTag(ev.Data)
	}
	return nil
}

func (w *markdownWriter) startTag(ev Event) {
	if level, ok := headingLevel(ev.Data); ok {
		w.out.WriteString(strings.Repeat("#", level) + " ")
		return
	}
	switch ev.Data {
	case "li":
		if s := w.out.String(); s != "" && !strings.HasSuffix(s, "\n") {
			w.out.WriteString("\n")
		}
		w.out.WriteString("* ")
	case "em":
		w.out.WriteString("_")
	case "a":
		w.out.WriteString("[")
		w.link, _ = ev.Attr("href")
	case "code":
		if !w.inPre {
			w.out.WriteString("`")
		}
	case "pre":
		w.inPre = true
		w.out.WriteString("```")
	}
}

func (w *markdownWriter) endTag(name string) {
	switch name {
	case "em":
		w.out.WriteString("_")
	case "a":
		w.out.WriteString("](" + w.link + ")")
		if strings.HasPrefix(w.link, dataPrefix) {
			w.downloads = append(w.downloads, w.baseURL+w.link)
		}
		w.link = ""
	case "pre":
		w.out.WriteString("```")
		w.inPre = false
	case "code":
		if !w.inPre {
			w.out.WriteString("`")
		}
	}
}

// headingLevel parses h1..h9 tag names
func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0, false
	}
	level, err := strconv.Atoi(tag[1:])
	if err != nil || level < 1 {
		return 0, false
	}
	return level, true
}
