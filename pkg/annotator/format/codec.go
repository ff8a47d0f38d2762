package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// EncodeStrings renders xs as a PostgreSQL-style array literal with every
// element double-quoted: {"a","b \"c\""}. A nil or empty slice is {}.
// All other bytes, including invalid UTF-8, are copied unchanged.
func EncodeStrings(xs []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		for j := 0; j < len(x); j++ {
			switch c := x[j]; c {
			case '\\':
				b.WriteString(`\\`)
			case '"':
				b.WriteString(`\"`)
			case '\t':
				b.WriteString(`\t`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

// DecodeStrings parses a literal produced by EncodeStrings. "{}" decodes to
// an empty, non-nil slice.
func DecodeStrings(s string) ([]string, error) {
	body, err := arrayBody(s)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if body == "" {
		return out, nil
	}

	i := 0
	for {
		if i >= len(body) || body[i] != '"' {
			return nil, malformed(s, "expected opening quote at %d", i+1)
		}
		i++
		var elem strings.Builder
		closed := false
		for i < len(body) && !closed {
			c := body[i]
			switch c {
			case '"':
				closed = true
				i++
			case '\\':
				if i+1 >= len(body) {
					return nil, malformed(s, "dangling escape")
				}
				switch body[i+1] {
				case '\\':
					elem.WriteByte('\\')
				case '"':
					elem.WriteByte('"')
				case 't':
					elem.WriteByte('\t')
				case 'n':
					elem.WriteByte('\n')
				case 'r':
					elem.WriteByte('\r')
				default:
					return nil, malformed(s, "unknown escape \\%c", body[i+1])
				}
				i += 2
			default:
				elem.WriteByte(c)
				i++
			}
		}
		if !closed {
			return nil, malformed(s, "unterminated element")
		}
		out = append(out, elem.String())

		if i == len(body) {
			return out, nil
		}
		if body[i] != ',' {
			return nil, malformed(s, "expected ',' at %d", i+1)
		}
		i++
	}
}

// EncodeInts renders xs as an unquoted array literal: {0,4,5,8}.
func EncodeInts(xs []int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(x))
	}
	b.WriteByte('}')
	return b.String()
}

// DecodeInts parses a literal produced by EncodeInts.
func DecodeInts(s string) ([]int, error) {
	body, err := arrayBody(s)
	if err != nil {
		return nil, err
	}
	out := []int{}
	if body == "" {
		return out, nil
	}
	for _, part := range strings.Split(body, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, malformed(s, "bad integer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func arrayBody(s string) (string, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", malformed(s, "missing braces")
	}
	return s[1 : len(s)-1], nil
}

func malformed(s, format string, args ...any) error {
	return fmt.Errorf("array literal %q: %s: %w", truncate(s, 40), fmt.Sprintf(format, args...), internalerr.ErrInvalidInput)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
