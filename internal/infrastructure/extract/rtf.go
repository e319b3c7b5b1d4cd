package extract

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// rtfSkippedDestinations hold metadata, not body text
var rtfSkippedDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"header":     true,
	"footer":     true,
}

// rtfText strips RTF control words and groups, keeping body text.
// \'hh escapes are decoded as Windows-1252.
func rtfText(data []byte) string {
	src := string(data)
	var b strings.Builder

	// skipDepth > 0 while inside a skipped group; it records the group depth
	depth, skipDepth := 0, 0
	groupStart := false

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '{':
			depth++
			groupStart = true
			continue
		case '}':
			if skipDepth == depth {
				skipDepth = 0
			}
			depth--
			groupStart = false
			continue
		case '\r', '\n':
			continue
		case '\\':
		default:
			groupStart = false
			if skipDepth == 0 {
				b.WriteByte(ch)
			}
			continue
		}

		// Control sequence
		if i+1 >= len(src) {
			break
		}
		next := src[i+1]

		switch {
		case next == '\\' || next == '{' || next == '}':
			if skipDepth == 0 {
				b.WriteByte(next)
			}
			i++
			groupStart = false
			continue
		case next == '*':
			// {\* ...} marks an optional destination readers may ignore
			if groupStart && skipDepth == 0 {
				skipDepth = depth
			}
			i++
			continue
		case next == '\'':
			if i+3 < len(src) && skipDepth == 0 {
				if r, ok := rtfHexByte(src[i+2 : i+4]); ok {
					b.WriteString(r)
				}
			}
			i += 3
			groupStart = false
			continue
		case next == '~':
			if skipDepth == 0 {
				b.WriteByte(' ')
			}
			i++
			continue
		case !isASCIILetter(next):
			i++
			continue
		}

		// Control word: letters, optional signed number, optional space
		j := i + 1
		for j < len(src) && isASCIILetter(src[j]) {
			j++
		}
		word := src[i+1 : j]
		numStart := j
		if j < len(src) && (src[j] == '-' || unicode.IsDigit(rune(src[j]))) {
			j++
			for j < len(src) && unicode.IsDigit(rune(src[j])) {
				j++
			}
		}
		param := src[numStart:j]
		if j < len(src) && src[j] == ' ' {
			j++
		}
		i = j - 1

		if groupStart && skipDepth == 0 && rtfSkippedDestinations[word] {
			skipDepth = depth
		}
		groupStart = false

		if skipDepth != 0 {
			continue
		}
		switch word {
		case "u":
			// \uN is a signed 16-bit code point followed by one fallback char
			if n, err := strconv.Atoi(param); err == nil {
				if n < 0 {
					n += 65536
				}
				b.WriteRune(rune(n))
				switch {
				case strings.HasPrefix(src[i+1:], `\'`):
					i += 4
				case i+1 < len(src) && src[i+1] != '\\' && src[i+1] != '{' && src[i+1] != '}':
					i++
				}
			}
		case "par", "line", "sect", "page":
			b.WriteByte('\n')
		case "tab", "cell":
			b.WriteByte(' ')
		}
	}

	return b.String()
}

func rtfHexByte(hex string) (string, bool) {
	var v byte
	for i := 0; i < 2; i++ {
		c := hex[i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | (c - '0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | (c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | (c - 'A' + 10)
		default:
			return "", false
		}
	}
	return string(charmap.Windows1252.DecodeByte(v)), true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
