package convert

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// EventKind enumerates markup events
type EventKind int

const (
	EventText EventKind = iota
	EventEntity
	EventStartTag
	EventEndTag
	EventComment
)

// Event is one markup event. Data is the text, the decoded entity, the
// lowercase tag name or the comment body depending on Kind.
type Event struct {
	Kind  EventKind
	Data  string
	Name  string // entity name without & and ;
	Attrs []html.Attribute
}

// Attr returns the value of a tag attribute
func (e Event) Attr(key string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// ErrUnknownEntity is returned for entity references missing from the HTML entity table
var ErrUnknownEntity = errors.New("unknown entity")

// UnknownEntityError carries the unresolved entity name
type UnknownEntityError struct {
	Name string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity &%s;", e.Name)
}

func (e *UnknownEntityError) Unwrap() error { return ErrUnknownEntity }

var entityRef = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// Events tokenizes markup and calls fn for every event in document order.
// Text is reported raw with entity references split out as separate events.
func Events(r io.Reader, fn func(Event) error) error {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return fmt.Errorf("tokenize markup: %w", z.Err())
		case html.TextToken:
			if err := textEvents(string(z.Raw()), fn); err != nil {
				return err
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			ev := Event{Kind: EventStartTag, Data: string(name)}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				ev.Attrs = append(ev.Attrs, html.Attribute{Key: string(key), Val: string(val)})
			}
			if err := fn(ev); err != nil {
				return err
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if err := fn(Event{Kind: EventEndTag, Data: string(name)}); err != nil {
				return err
			}
		case html.CommentToken:
			if err := fn(Event{Kind: EventComment, Data: string(z.Text())}); err != nil {
				return err
			}
		}
	}
}

func textEvents(raw string, fn func(Event) error) error {
	for raw != "" {
		loc := entityRef.FindStringSubmatchIndex(raw)
		if loc == nil {
			return fn(Event{Kind: EventText, Data: raw})
		}
		if loc[0] > 0 {
			if err := fn(Event{Kind: EventText, Data: raw[:loc[0]]}); err != nil {
				return err
			}
		}
		name := raw[loc[2]:loc[3]]
		decoded, err := decodeEntity(name)
		if err != nil {
			return err
		}
		if err := fn(Event{Kind: EventEntity, Data: decoded, Name: name}); err != nil {
			return err
		}
		raw = raw[loc[1]:]
	}
	return nil
}

// decodeEntity resolves a reference name (e.g. "amp", "#62") through the HTML5 table
func decodeEntity(name string) (string, error) {
	ref := "&" + name + ";"
	decoded := html.UnescapeString(ref)
	if decoded == ref {
		return "", &UnknownEntityError{Name: name}
	}
	// A legacy entity matching only a prefix of name ("not" in "notanentity")
	// leaves the rest of the reference and its semicolon behind.
	if strings.HasSuffix(decoded, ";") && decoded != ";" {
		return "", &UnknownEntityError{Name: name}
	}
	return decoded, nil
}

// collectText concatenates text and entities, keeping comments accepted by keep
func collectText(markup string, keep func(comment string) (string, bool)) (string, error) {
	var b strings.Builder
	err := Events(strings.NewReader(markup), func(ev Event) error {
		switch ev.Kind {
		case EventText, EventEntity:
			b.WriteString(ev.Data)
		case EventComment:
			if keep != nil {
				if text, ok := keep(ev.Data); ok {
					b.WriteString(text)
				}
			}
		}
		return nil
	})
	return b.String(), err
}
