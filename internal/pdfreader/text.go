package pdfreader

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"
)

var textOpRe = regexp.MustCompile(`(?s)\[(?:.|\n|\r)*?\]\s*TJ|<[^>]+>\s*Tj|\((?:\\.|[^\\)])*\)\s*Tj|\((?:\\.|[^\\)])*\)\s*'|[\d.-]+\s+[\d.-]+\s+\((?:\\.|[^\\)])*\)\s*"`)

// extractPlainText pulls the shown-text payload out of every Tj/TJ/'/"
// operator in a decoded content stream, used only as loose model context —
// positions and fonts don't matter here, just the words on the page.
func extractPlainText(content []byte) string {
	var out strings.Builder
	for _, m := range textOpRe.FindAllString(string(content), -1) {
		if t := extractTextFromOperator(m); t != "" {
			out.WriteString(t)
			out.WriteByte(' ')
		}
	}
	return strings.TrimSpace(out.String())
}

func extractTextFromOperator(op string) string {
	op = strings.TrimSpace(op)
	switch {
	case strings.HasSuffix(op, "TJ"):
		start := strings.Index(op, "[")
		end := strings.LastIndex(op, "]")
		if start == -1 || end == -1 || end <= start {
			return ""
		}
		return decodeTJArray(op[start+1 : end])
	case strings.HasSuffix(op, "\""):
		idx := strings.Index(op, "(")
		if idx == -1 {
			return ""
		}
		if lit, ok := readPDFLiteral(op[idx:]); ok {
			return decodePDFLiteral(lit)
		}
	case strings.HasSuffix(op, "Tj") || strings.HasSuffix(op, "'"):
		op = strings.TrimSpace(strings.TrimSuffix(op, "Tj"))
		op = strings.TrimSpace(strings.TrimSuffix(op, "'"))
		if strings.HasPrefix(op, "(") {
			if lit, ok := readPDFLiteral(op); ok {
				return decodePDFLiteral(lit)
			}
		}
		if strings.HasPrefix(op, "<") && strings.HasSuffix(op, ">") {
			return decodePDFHexLiteral(strings.TrimSuffix(strings.TrimPrefix(op, "<"), ">"))
		}
	}
	return ""
}

func decodeTJArray(arr string) string {
	var out strings.Builder
	for i := 0; i < len(arr); {
		switch arr[i] {
		case '(':
			lit, next, ok := readPDFLiteralAt(arr, i)
			if !ok {
				i++
				continue
			}
			out.WriteString(decodePDFLiteral(lit))
			i = next
		case '<':
			j := i + 1
			for j < len(arr) && arr[j] != '>' {
				j++
			}
			if j < len(arr) {
				out.WriteString(decodePDFHexLiteral(arr[i+1 : j]))
				i = j + 1
			} else {
				i++
			}
		default:
			i++
		}
	}
	return out.String()
}

func readPDFLiteral(op string) (string, bool) {
	lit, _, ok := readPDFLiteralAt(op, 0)
	return lit, ok
}

func readPDFLiteralAt(s string, start int) (string, int, bool) {
	if start >= len(s) || s[start] != '(' {
		return "", start, false
	}
	depth := 1
	esc := false
	for i := start + 1; i < len(s); i++ {
		ch := s[i]
		if esc {
			esc = false
			continue
		}
		if ch == '\\' {
			esc = true
			continue
		}
		if ch == '(' {
			depth++
			continue
		}
		if ch == ')' {
			depth--
			if depth == 0 {
				return s[start+1 : i], i + 1, true
			}
		}
	}
	return "", start, false
}

func decodePDFLiteral(s string) string {
	var out bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case '\\', '(', ')':
			out.WriteByte(s[i])
		case '\n', '\r':
		default:
			if s[i] >= '0' && s[i] <= '7' {
				val := int(s[i] - '0')
				for k := 0; k < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; k++ {
					i++
					val = (val * 8) + int(s[i]-'0')
				}
				out.WriteByte(byte(val))
			} else {
				out.WriteByte(s[i])
			}
		}
	}
	return out.String()
}

func decodePDFHexLiteral(hexText string) string {
	hexText = strings.TrimSpace(hexText)
	if hexText == "" {
		return ""
	}
	if len(hexText)%2 != 0 {
		hexText += "0"
	}
	b, err := hex.DecodeString(hexText)
	if err != nil || len(b) == 0 {
		return ""
	}
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u16 := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u16 = append(u16, (uint16(b[i])<<8)|uint16(b[i+1]))
		}
		return string(utf16.Decode(u16))
	}
	return string(b)
}
