package config

import (
	"fmt"
	"strings"
)

// Key is a parsed key chord: zero or more modifiers plus one named or
// literal key (spec.md §6 "Key syntax").
type Key struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Name  string // canonical: "a", "Enter", "Up", "F5", ...
}

// String renders k back into the C-/M-/S- syntax it was parsed from, in
// canonical modifier order.
func (k Key) String() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("C-")
	}
	if k.Alt {
		b.WriteString("M-")
	}
	if k.Shift {
		b.WriteString("S-")
	}
	b.WriteString(k.Name)
	return b.String()
}

var namedKeys = map[string]string{
	"enter":    "Enter",
	"escape":   "Escape",
	"esc":      "Escape",
	"space":    "Space",
	"bspace":   "BSpace",
	"tab":      "Tab",
	"up":       "Up",
	"down":     "Down",
	"left":     "Left",
	"right":    "Right",
	"home":     "Home",
	"end":      "End",
	"pageup":   "PageUp",
	"pgup":     "PageUp",
	"pagedown": "PageDown",
	"pgdn":     "PageDown",
	"insert":   "Insert",
	"delete":   "Delete",
	"dc":       "Delete",
}

// ParseKey parses one key chord (spec.md §6: "zero or more of C-, M-, S-
// modifiers, then one of Enter|Escape|...|Fn|<single char>, case-insensitive
// names").
func ParseKey(s string) (Key, error) {
	var k Key
	rest := s
	for {
		switch {
		case hasModifierPrefix(rest, "C-"):
			k.Ctrl = true
			rest = rest[2:]
		case hasModifierPrefix(rest, "M-"):
			k.Alt = true
			rest = rest[2:]
		case hasModifierPrefix(rest, "S-"):
			k.Shift = true
			rest = rest[2:]
		default:
			goto done
		}
	}
done:
	if rest == "" {
		return Key{}, fmt.Errorf("empty key name in %q", s)
	}
	lower := strings.ToLower(rest)
	if name, ok := namedKeys[lower]; ok {
		k.Name = name
		return k, nil
	}
	if len(lower) >= 2 && lower[0] == 'f' {
		if n, ok := parseFunctionKeyNumber(lower[1:]); ok {
			k.Name = fmt.Sprintf("F%d", n)
			return k, nil
		}
	}
	if len([]rune(rest)) == 1 {
		k.Name = rest
		return k, nil
	}
	return Key{}, fmt.Errorf("unrecognised key name %q", rest)
}

func hasModifierPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func parseFunctionKeyNumber(digits string) (int, bool) {
	if digits == "" {
		return 0, false
	}
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}
