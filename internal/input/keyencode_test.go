package input

import (
	"bytes"
	"testing"

	"wtmux/internal/config"
)

func TestEncodeKeyPlainLetter(t *testing.T) {
	got := EncodeKey(config.Key{Name: "a"})
	if !bytes.Equal(got, []byte("a")) {
		t.Fatalf("got %q, want \"a\"", got)
	}
}

func TestEncodeKeyCtrlLetter(t *testing.T) {
	got := EncodeKey(config.Key{Ctrl: true, Name: "c"})
	if !bytes.Equal(got, []byte{3}) {
		t.Fatalf("got %v, want [3] (ETX)", got)
	}
}

func TestEncodeKeyNamedSequence(t *testing.T) {
	got := EncodeKey(config.Key{Name: "Up"})
	if !bytes.Equal(got, []byte("\x1b[A")) {
		t.Fatalf("got %q, want ESC[A", got)
	}
}

func TestEncodeKeyAltPrefixesEscape(t *testing.T) {
	got := EncodeKey(config.Key{Alt: true, Name: "x"})
	if !bytes.Equal(got, []byte("\x1bx")) {
		t.Fatalf("got %q, want ESC x", got)
	}
}

func TestEncodeKeyFunctionKeys(t *testing.T) {
	if got := EncodeKey(config.Key{Name: "F1"}); !bytes.Equal(got, []byte("\x1bOP")) {
		t.Fatalf("F1 = %q, want ESC O P", got)
	}
	if got := EncodeKey(config.Key{Name: "F5"}); !bytes.Equal(got, []byte("\x1b[15~")) {
		t.Fatalf("F5 = %q, want ESC [ 15 ~", got)
	}
}
