package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type pageKind uint8

const (
	pageNone pageKind = iota
	pageNumber
	pageString
)

// PageNumber holds a citation page that the backend may send either as a
// JSON number (12) or a JSON string ("xii"). It re-encodes in the same JSON
// kind it was decoded from; only an absent or null page encodes as null.
type PageNumber struct {
	text string
	kind pageKind
}

// PageInt returns a numeric page number.
func PageInt(n int) PageNumber {
	return PageNumber{text: fmt.Sprintf("%d", n), kind: pageNumber}
}

// PageText returns a textual page number. The empty string is a page, not
// an absent one.
func PageText(s string) PageNumber {
	return PageNumber{text: s, kind: pageString}
}

// String returns the page as displayed to users.
func (p PageNumber) String() string {
	return p.text
}

// IsNumeric reports whether the page was a JSON number.
func (p PageNumber) IsNumeric() bool {
	return p.kind == pageNumber
}

// IsZero reports whether no page was given.
func (p PageNumber) IsZero() bool {
	return p.kind == pageNone
}

func (p PageNumber) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case pageNumber:
		return []byte(p.text), nil
	case pageString:
		return json.Marshal(p.text)
	default:
		return []byte("null"), nil
	}
}

func (p *PageNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = PageNumber{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PageText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("page_number: want number or string, got %s", data)
	}
	*p = PageNumber{text: n.String(), kind: pageNumber}
	return nil
}
