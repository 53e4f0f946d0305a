// Package input implements the client-side prefix key state machine and
// key-to-bytes encoding of spec.md §4.9. Grounded on the teacher's
// internal/hotkeys package (binding.go's modifier+name chord shape, which
// this module's config.Key already mirrors) for the idea of a canonical
// parsed chord driving dispatch; the teacher has no PTY byte encoder (it
// runs an OS-level global hotkey hook, not a terminal client), so
// EncodeKey is grounded directly on spec.md §4.9's literal byte tables.
package input

import (
	"strings"

	"wtmux/internal/config"
)

// EncodeKey translates one key chord into the bytes a raw PTY expects
// (spec.md §4.9 "Key-to-bytes mapping").
func EncodeKey(k config.Key) []byte {
	if seq, ok := namedSequences[k.Name]; ok && !k.Ctrl && !k.Alt {
		return []byte(seq)
	}
	if k.Ctrl {
		if c, ok := ctrlByte(k.Name); ok {
			return []byte{c}
		}
	}
	if k.Alt {
		return append([]byte{0x1b}, []byte(k.Name)...)
	}
	return []byte(k.Name)
}

// namedSequences are the standard xterm CSI/SS3 sequences for named keys
// (spec.md §4.9: "arrows/home/end/pgup/pgdn/insert/delete -> the standard
// xterm CSI sequences; F1-F4 -> ESC O P/Q/R/S; F5-F12 -> CSI <n>~").
var namedSequences = map[string]string{
	"Up":       "\x1b[A",
	"Down":     "\x1b[B",
	"Right":    "\x1b[C",
	"Left":     "\x1b[D",
	"Home":     "\x1b[H",
	"End":      "\x1b[F",
	"PageUp":   "\x1b[5~",
	"PageDown": "\x1b[6~",
	"Insert":   "\x1b[2~",
	"Delete":   "\x1b[3~",
	"Enter":    "\r",
	"Escape":   "\x1b",
	"Tab":      "\t",
	"BSpace":   "\x7f",
	"Space":    " ",
	"F1":       "\x1bOP",
	"F2":       "\x1bOQ",
	"F3":       "\x1bOR",
	"F4":       "\x1bOS",
	"F5":       "\x1b[15~",
	"F6":       "\x1b[17~",
	"F7":       "\x1b[18~",
	"F8":       "\x1b[19~",
	"F9":       "\x1b[20~",
	"F10":      "\x1b[21~",
	"F11":      "\x1b[23~",
	"F12":      "\x1b[24~",
}

// ctrlByte maps a single letter to its C0 control code (1..26),
// spec.md §4.9: "Ctrl+letter -> the C0 control (1..=26)".
func ctrlByte(name string) (byte, bool) {
	if len(name) != 1 {
		return 0, false
	}
	c := strings.ToLower(name)[0]
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return c - 'a' + 1, true
}
