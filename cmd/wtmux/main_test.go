package main

import (
	"bufio"
	"strings"
	"testing"
)

func TestFlagValueFindsFollowingArg(t *testing.T) {
	got, ok := flagValue([]string{"-s", "main", "-c", "bash"}, "-s")
	if !ok || got != "main" {
		t.Fatalf("got (%q, %v), want (\"main\", true)", got, ok)
	}
	got, ok = flagValue([]string{"-s", "main"}, "-c")
	if ok || got != "" {
		t.Fatalf("got (%q, %v), want (\"\", false)", got, ok)
	}
}

func TestFlagValueIgnoresTrailingFlagWithNoValue(t *testing.T) {
	got, ok := flagValue([]string{"-t"}, "-t")
	if ok || got != "" {
		t.Fatalf("got (%q, %v), want (\"\", false) for a dangling flag", got, ok)
	}
}

func TestDecodeKeyEnterTabBackspace(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\t\x7f"))
	for _, want := range []string{"Enter", "Tab", "BSpace"} {
		k, err := decodeKey(r)
		if err != nil {
			t.Fatalf("decodeKey: %v", err)
		}
		if k.Name != want {
			t.Fatalf("got %+v, want Name=%s", k, want)
		}
	}
}

func TestDecodeKeyCtrlLetter(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(string([]byte{2})))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if !k.Ctrl || k.Name != "b" {
		t.Fatalf("got %+v, want Ctrl+b", k)
	}
}

func TestDecodeKeyPlainASCII(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("q"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Ctrl || k.Alt || k.Name != "q" {
		t.Fatalf("got %+v, want plain q", k)
	}
}

func TestDecodeKeyMultiByteUTF8Rune(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("é"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Name != "é" {
		t.Fatalf("got %+v, want rune é", k)
	}
}

func TestDecodeEscapeArrowKeys(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1b[A\x1b[B\x1b[C\x1b[D"))
	want := []string{"Up", "Down", "Right", "Left"}
	for _, name := range want {
		k, err := decodeKey(r)
		if err != nil {
			t.Fatalf("decodeKey: %v", err)
		}
		if k.Name != name {
			t.Fatalf("got %+v, want %s", k, name)
		}
	}
}

func TestDecodeEscapeFunctionKeys(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1bOP\x1b[15~"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Name != "F1" {
		t.Fatalf("got %+v, want F1", k)
	}
	k, err = decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Name != "F5" {
		t.Fatalf("got %+v, want F5", k)
	}
}

func TestDecodeEscapeBareEscape(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1b"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Name != "Escape" {
		t.Fatalf("got %+v, want Escape", k)
	}
}

func TestDecodeEscapeAltPrefixedLetter(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1bx"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if !k.Alt || k.Name != "x" {
		t.Fatalf("got %+v, want Alt+x", k)
	}
}

func TestDecodeEscapeUnrecognizedCSIFallsBackToEscape(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1b[999z"))
	k, err := decodeKey(r)
	if err != nil {
		t.Fatalf("decodeKey: %v", err)
	}
	if k.Name != "Escape" {
		t.Fatalf("got %+v, want Escape for an unrecognized CSI sequence", k)
	}
}

func TestUTF8ExtraBytes(t *testing.T) {
	cases := []struct {
		first byte
		want  int
	}{
		{'a', 0},
		{0xC3, 1}, // 2-byte lead, e.g. é
		{0xE2, 2}, // 3-byte lead, e.g. most CJK / symbols
		{0xF0, 3}, // 4-byte lead, e.g. emoji
	}
	for _, c := range cases {
		if got := utf8ExtraBytes(c.first); got != c.want {
			t.Fatalf("utf8ExtraBytes(0x%X) = %d, want %d", c.first, got, c.want)
		}
	}
}
