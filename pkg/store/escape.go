package store

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bft-labs/wormhole/internal/domain"
)

// MaxNameLength bounds an escaped channel or identifier so the payload file
// name stays under common 255-byte file system limits.
const MaxNameLength = 200

const upperhex = "0123456789ABCDEF"

// Escape encodes s as a single path element.
// Bytes outside [a-z0-9._-] become %XX. Upper-case letters are encoded so that
// names differing only in case stay distinct on case-insensitive file
// systems. A leading or trailing '.' is always encoded, as is the first byte
// of a Windows device name such as "con" or "com1.txt".
func Escape(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty name", domain.ErrInvalidIdentifier)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8", domain.ErrInvalidIdentifier, s)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("%w: %q contains NUL", domain.ErrInvalidIdentifier, s)
	}

	reserved := reservedStem(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		first, last := i == 0, i == len(s)-1
		if safe(c) && !(first && (c == '.' || reserved)) && !(last && c == '.') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}

	out := b.String()
	if len(out) > MaxNameLength {
		return "", fmt.Errorf("%w: escaped name is %d bytes (max %d)", domain.ErrInvalidIdentifier, len(out), MaxNameLength)
	}
	return out, nil
}

// Unescape reverses Escape. It rejects anything Escape could not have produced.
func Unescape(name string) (string, error) {
	if name == "" || name[0] == '.' {
		return "", fmt.Errorf("%w: %q is not an escaped name", domain.ErrInvalidIdentifier, name)
	}

	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '%' {
			if !safe(c) {
				return "", fmt.Errorf("%w: %q contains unescaped byte %q", domain.ErrInvalidIdentifier, name, c)
			}
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("%w: %q has a truncated escape", domain.ErrInvalidIdentifier, name)
		}
		hi, ok1 := unhex(name[i+1])
		lo, ok2 := unhex(name[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("%w: %q has a malformed escape", domain.ErrInvalidIdentifier, name)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}

	s := b.String()
	if again, err := Escape(s); err != nil || again != name {
		return "", fmt.Errorf("%w: %q is not in canonical form", domain.ErrInvalidIdentifier, name)
	}
	return s, nil
}

// reservedStem reports whether the part of s before its first '.' is a
// Windows device name, compared without regard to case.
func reservedStem(s string) bool {
	stem := strings.ToLower(s)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	switch stem {
	case "con", "prn", "aux", "nul":
		return true
	}
	if len(stem) == 4 && (strings.HasPrefix(stem, "com") || strings.HasPrefix(stem, "lpt")) {
		return '0' <= stem[3] && stem[3] <= '9'
	}
	return false
}

func safe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
