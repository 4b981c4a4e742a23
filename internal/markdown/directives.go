package markdown

import (
	"bytes"
	"strings"
)

// Directive is one `:::key` container opening found in a document body.
type Directive struct {
	Key   string
	Title string
	// Line is 1-based and relative to the body passed to ScanDirectives.
	Line  int
	Fence int
}

// parseOpening reads `:::key`, `:::key[Title]` or `:::key Title` from the start of
// line. Leading indentation must already be stripped.
func parseOpening(line []byte) (Directive, bool) {
	s := strings.TrimRight(string(line), " \t\r\n")
	fence := 0
	for fence < len(s) && s[fence] == ':' {
		fence++
	}
	if fence < 3 {
		return Directive{}, false
	}
	s = s[fence:]

	end := 0
	for end < len(s) && isKeyByte(s[end], end == 0) {
		end++
	}
	if end == 0 {
		return Directive{}, false
	}
	d := Directive{Key: s[:end], Fence: fence}
	rest := s[end:]

	switch {
	case rest == "":
	case rest[0] == '[':
		closing := strings.LastIndexByte(rest, ']')
		if closing < 0 || strings.TrimSpace(rest[closing+1:]) != "" {
			return Directive{}, false
		}
		d.Title = strings.TrimSpace(rest[1:closing])
	case rest[0] == ' ' || rest[0] == '\t':
		d.Title = strings.TrimSpace(rest)
	default:
		return Directive{}, false
	}
	return d, true
}

func isKeyByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case first:
		return false
	default:
		return (c >= '0' && c <= '9') || c == '-'
	}
}

// ScanDirectives lists every container directive opened in body, in document order.
// Lines inside fenced code blocks are ignored. Lines may be of any length.
func ScanDirectives(body []byte) []Directive {
	var (
		out     []Directive
		fenceCh byte
		fenceN  int
		lineNo  int
	)
	for raw := range bytes.Lines(body) {
		lineNo++
		line := strings.TrimRight(string(raw), "\r\n")
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}
		if ch, n := codeFence(trimmed); n > 0 {
			switch {
			case fenceN == 0:
				fenceCh, fenceN = ch, n
			case ch == fenceCh && n >= fenceN && strings.TrimSpace(trimmed[n:]) == "":
				fenceN = 0
			}
			continue
		}
		if fenceN > 0 {
			continue
		}
		if d, ok := parseOpening([]byte(trimmed)); ok {
			d.Line = lineNo
			out = append(out, d)
		}
	}
	return out
}

// codeFence reports the fence character and length when line opens or closes a
// fenced code block.
func codeFence(line string) (byte, int) {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}
	ch := line[0]
	n := 0
	for n < len(line) && line[n] == ch {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	return ch, n
}
