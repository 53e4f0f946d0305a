package input

import (
	"testing"

	"wtmux/internal/config"
)

func mustKey(t *testing.T, s string) config.Key {
	t.Helper()
	k, err := config.ParseKey(s)
	if err != nil {
		t.Fatalf("ParseKey(%q): %v", s, err)
	}
	return k
}

func TestPlainKeyPassesThroughAsInput(t *testing.T) {
	in := New(config.DefaultConfig())
	act := in.Handle(mustKey(t, "a"))
	if act.Kind != ActionInput || string(act.Bytes) != "a" {
		t.Fatalf("got %+v, want ActionInput with bytes \"a\"", act)
	}
	if in.State() != Normal {
		t.Fatalf("state = %v, want Normal", in.State())
	}
}

func TestPrefixThenDetachDispatchesActionDetach(t *testing.T) {
	in := New(config.DefaultConfig())
	prefixAct := in.Handle(mustKey(t, "C-b"))
	if prefixAct.Kind != ActionNone || in.State() != PrefixReceived {
		t.Fatalf("after prefix: action=%+v state=%v", prefixAct, in.State())
	}
	act := in.Handle(mustKey(t, "d"))
	if act.Kind != ActionDetach {
		t.Fatalf("got %+v, want ActionDetach", act)
	}
	if in.State() != Normal {
		t.Fatalf("state after dispatch = %v, want Normal", in.State())
	}
}

func TestPrefixThenUnboundKeyFallsThroughAsInput(t *testing.T) {
	in := New(config.DefaultConfig())
	in.Handle(mustKey(t, "C-b"))
	act := in.Handle(mustKey(t, "q"))
	if act.Kind != ActionInput {
		t.Fatalf("got %+v, want ActionInput (q is not bound)", act)
	}
	if in.State() != Normal {
		t.Fatalf("state = %v, want Normal after fallthrough", in.State())
	}
}

func TestPrefixThenOrdinaryCommandDispatchesActionCommand(t *testing.T) {
	in := New(config.DefaultConfig())
	in.Handle(mustKey(t, "C-b"))
	act := in.Handle(mustKey(t, "c"))
	if act.Kind != ActionCommand || act.Command != "new-window" {
		t.Fatalf("got %+v, want ActionCommand new-window", act)
	}
}

func TestPrefixThenCommandPromptEntersCommandPromptMode(t *testing.T) {
	in := New(config.DefaultConfig())
	in.Handle(mustKey(t, "C-b"))
	act := in.Handle(mustKey(t, ":"))
	if act.Kind != ActionRedraw || act.Prompt != ":" {
		t.Fatalf("got %+v, want ActionRedraw prompt=\":\"", act)
	}
	if in.State() != CommandPrompt {
		t.Fatalf("state = %v, want CommandPrompt", in.State())
	}
}

func TestCommandPromptTypingBackspaceAndEnter(t *testing.T) {
	in := New(config.DefaultConfig())
	in.Handle(mustKey(t, "C-b"))
	in.Handle(mustKey(t, ":"))

	act := in.Handle(config.Key{Name: "l"})
	if act.Prompt != ":l" {
		t.Fatalf("after typing l: prompt=%q, want :l", act.Prompt)
	}
	act = in.Handle(config.Key{Name: "s"})
	if act.Prompt != ":ls" {
		t.Fatalf("after typing s: prompt=%q, want :ls", act.Prompt)
	}
	act = in.Handle(mustKey(t, "BSpace"))
	if act.Prompt != ":l" {
		t.Fatalf("after backspace: prompt=%q, want :l", act.Prompt)
	}
	act = in.Handle(mustKey(t, "Enter"))
	if act.Kind != ActionCommand || act.Command != "l" {
		t.Fatalf("after Enter: got %+v, want ActionCommand \"l\"", act)
	}
	if in.State() != Normal {
		t.Fatalf("state after Enter = %v, want Normal", in.State())
	}
}

func TestCommandPromptEscapeCancels(t *testing.T) {
	in := New(config.DefaultConfig())
	in.Handle(mustKey(t, "C-b"))
	in.Handle(mustKey(t, ":"))
	in.Handle(config.Key{Name: "x"})

	act := in.Handle(mustKey(t, "Escape"))
	if act.Kind != ActionRedraw || act.Prompt != "" {
		t.Fatalf("got %+v, want ActionRedraw with empty prompt", act)
	}
	if in.State() != Normal {
		t.Fatalf("state after Escape = %v, want Normal", in.State())
	}
}
