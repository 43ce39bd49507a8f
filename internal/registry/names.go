package registry

import "unicode/utf8"

// reservedNames are hyphenated names already claimed by markup namespaces.
var reservedNames = map[string]struct{}{
	"annotation-xml":   {},
	"color-profile":    {},
	"font-face":        {},
	"font-face-src":    {},
	"font-face-uri":    {},
	"font-face-format": {},
	"font-face-name":   {},
	"missing-glyph":    {},
}

// IsValidName reports whether name can identify a component: it starts with
// a lowercase ASCII letter, contains a hyphen, consists only of name
// characters, and is not reserved.
func IsValidName(name string) bool {
	if _, reserved := reservedNames[name]; reserved {
		return false
	}
	if name == "" || name[0] < 'a' || name[0] > 'z' || !utf8.ValidString(name) {
		return false
	}
	hyphen := false
	for _, r := range name[1:] {
		if r == '-' {
			hyphen = true
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return hyphen
}

// IsPrimitiveName reports whether name is usable as a built-in base type:
// lowercase ASCII letters and digits, starting with a letter.
func IsPrimitiveName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isNameChar(r rune) bool {
	switch {
	case r == '-' || r == '.' || r == '_':
		return true
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
		return true
	case r == 0xB7,
		r >= 0xC0 && r <= 0xD6,
		r >= 0xD8 && r <= 0xF6,
		r >= 0xF8 && r <= 0x37D,
		r >= 0x37F && r <= 0x1FFF,
		r >= 0x200C && r <= 0x200D,
		r >= 0x203F && r <= 0x2040,
		r >= 0x2070 && r <= 0x218F,
		r >= 0x2C00 && r <= 0x2FEF,
		r >= 0x3001 && r <= 0xD7FF,
		r >= 0xF900 && r <= 0xFDCF,
		r >= 0xFDF0 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0xEFFFF:
		return true
	}
	return false
}
