package input

import (
	"wtmux/internal/config"
)

// State is the client input interpreter's mode (spec.md §4.9).
type State uint8

const (
	Normal State = iota
	PrefixReceived
	CommandPrompt
)

// ActionKind tags what one Handle call produced.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionInput
	ActionCommand
	ActionDetach
	ActionRedraw
)

// Action is the result of feeding one key event through the interpreter.
type Action struct {
	Kind    ActionKind
	Bytes   []byte // ActionInput
	Command string // ActionCommand
	Prompt  string // ActionRedraw: current command-prompt line to display
}

// Interpreter is the per-client prefix key state machine of spec.md §4.9:
// Normal -> PrefixReceived -> Normal, with a CommandPrompt side-mode
// entered via the "command-prompt" sentinel.
type Interpreter struct {
	state  State
	cfg    *config.Config
	prompt []rune
}

// New creates an interpreter bound to cfg's prefix and key tables.
func New(cfg *config.Config) *Interpreter {
	return &Interpreter{cfg: cfg, state: Normal}
}

// State reports the interpreter's current mode.
func (in *Interpreter) State() State { return in.state }

// Handle feeds one key event through the state machine (spec.md §4.9).
func (in *Interpreter) Handle(k config.Key) Action {
	switch in.state {
	case PrefixReceived:
		return in.handlePrefixReceived(k)
	case CommandPrompt:
		return in.handleCommandPrompt(k)
	default:
		return in.handleNormal(k)
	}
}

func (in *Interpreter) handleNormal(k config.Key) Action {
	if k == in.cfg.Options.Prefix {
		in.state = PrefixReceived
		return Action{Kind: ActionNone}
	}
	if cmd, ok := in.cfg.Unbound[k.String()]; ok {
		return in.dispatch(cmd)
	}
	return Action{Kind: ActionInput, Bytes: EncodeKey(k)}
}

func (in *Interpreter) handlePrefixReceived(k config.Key) Action {
	in.state = Normal
	cmd, ok := in.cfg.Bindings[k.String()]
	if !ok {
		return Action{Kind: ActionInput, Bytes: EncodeKey(k)}
	}
	return in.dispatch(cmd)
}

// dispatch interprets a bound command line, recognizing the two sentinels
// the interpreter itself must act on (spec.md §4.9): "detach-client" and
// "command-prompt". Every other command line is forwarded to the server's
// command executor unchanged.
func (in *Interpreter) dispatch(cmd string) Action {
	switch cmd {
	case "detach-client":
		return Action{Kind: ActionDetach}
	case "command-prompt":
		in.state = CommandPrompt
		in.prompt = in.prompt[:0]
		return Action{Kind: ActionRedraw, Prompt: ":"}
	default:
		return Action{Kind: ActionCommand, Command: cmd}
	}
}

func (in *Interpreter) handleCommandPrompt(k config.Key) Action {
	switch k.Name {
	case "Enter":
		text := string(in.prompt)
		in.state = Normal
		in.prompt = nil
		return Action{Kind: ActionCommand, Command: text}
	case "Escape":
		in.state = Normal
		in.prompt = nil
		return Action{Kind: ActionRedraw, Prompt: ""}
	case "BSpace":
		if len(in.prompt) > 0 {
			in.prompt = in.prompt[:len(in.prompt)-1]
		}
		return Action{Kind: ActionRedraw, Prompt: ":" + string(in.prompt)}
	default:
		if !k.Ctrl && !k.Alt && len([]rune(k.Name)) == 1 {
			in.prompt = append(in.prompt, []rune(k.Name)[0])
		}
		return Action{Kind: ActionRedraw, Prompt: ":" + string(in.prompt)}
	}
}
