// Package frontmatter splits YAML front matter from Markdown documents and reads the
// fields the navigation builder cares about.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown source split into its front matter and body.
type Document struct {
	Raw    []byte
	Fields map[string]any
	Body   []byte
}

// Sidebar holds the `sidebar:` front matter block.
type Sidebar struct {
	Label   string
	Order   int
	Ordered bool
	Hidden  bool
}

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input. Both LF and CRLF line endings are accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---")
	for off := start; ; {
		idx := bytes.Index(content[off:], closeSeq)
		if idx < 0 {
			return nil, nil, false, ErrMissingClosingDelimiter
		}
		end := off + idx + len(nl)
		rest := bytes.TrimLeft(content[end+len("---"):], " \t")
		switch {
		case len(rest) == 0:
			return content[start:end], rest, true, nil
		case bytes.HasPrefix(rest, []byte(nl)):
			return content[start:end], rest[len(nl):], true, nil
		}
		// "---" followed by more text on the same line is not a delimiter.
		off = end
	}
}

// Parse splits content and decodes its front matter.
func Parse(content []byte) (*Document, error) {
	fm, body, _, err := Split(content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, &fields); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Raw: fm, Fields: fields, Body: body}, nil
}

// Title returns the front matter title, or "" when absent.
func (d *Document) Title() string {
	s, _ := d.Fields["title"].(string)
	return s
}

// Sidebar reads sidebar presentation hints. A top-level `order` field is honoured when
// `sidebar.order` is absent.
func (d *Document) Sidebar() Sidebar {
	var sb Sidebar
	if n, ok := toInt(d.Fields["order"]); ok {
		sb.Order, sb.Ordered = n, true
	}
	block, _ := d.Fields["sidebar"].(map[string]any)
	if block == nil {
		return sb
	}
	if s, ok := block["label"].(string); ok {
		sb.Label = s
	}
	if n, ok := toInt(block["order"]); ok {
		sb.Order, sb.Ordered = n, true
	}
	if h, ok := block["hidden"].(bool); ok {
		sb.Hidden = h
	}
	return sb
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}
