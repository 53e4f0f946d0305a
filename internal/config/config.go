// Package config parses the plain-text directive configuration file
// (set-option/bind-key/unbind-key/source-file, spec.md §6) into a Config of
// options and key bindings, and watches it for changes. Grounded on the
// teacher's internal/config package for its load/error-handling shape
// (DefaultConfig, non-fatal parse-warning logging via slog, a bounded file
// read; this package never writes the file) —
// the teacher's config is a flat YAML document, so the directive grammar and
// line parser here have no teacher equivalent and are hand-written against
// spec.md §6 directly; this is the one stdlib-only parser in the module
// (see DESIGN.md) because no example repo in the pack parses a tmux-style
// directive language. fsnotify, used by the teacher for config hot-reload,
// is kept for the same purpose.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// maxConfigFileBytes bounds how much of a config file is read, mirroring the
// teacher's readLimitedFile guard against unbounded reads.
const maxConfigFileBytes int64 = 1 << 20

const maxSourceDepth = 16

// Options holds the option table of spec.md §6, one field per named option.
type Options struct {
	Status                bool
	StatusLeft            string
	StatusRight           string
	StatusInterval        int
	BaseIndex             int
	RenumberWindows       bool
	AutomaticRename       bool
	DefaultShell          string
	DefaultTerminal       string
	EscapeTime            int
	HistoryLimit          int
	Mouse                 bool
	Prefix                Key
	DisplayTime           int
	DisplayPanesTime      int
	PaneBorderStyle       string
	PaneActiveBorderStyle string
}

// Config is the parsed, live configuration: options plus the prefix-table
// and no-prefix (`bind -n`) key bindings (spec.md §6). It is owned by the
// server's single exclusive mutex once attached to a ServerState (spec.md
// §5) and carries no locking of its own.
type Config struct {
	Options  Options
	Bindings map[string]string // Key.String() -> command line, after prefix
	Unbound  map[string]string // Key.String() -> command line, bind -n (no prefix)
}

// Snapshot returns a value copy of cfg's options and bindings. Caller must
// hold the server mutex.
func (c *Config) Snapshot() Config {
	out := Config{Options: c.Options}
	out.Bindings = cloneMap(c.Bindings)
	out.Unbound = cloneMap(c.Unbound)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func defaultShellForPlatform() string {
	if runtime.GOOS == "windows" {
		return "powershell.exe"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// defaultBindings is the prefix-table of spec.md §6 ("Default bindings
// (after prefix)").
func defaultBindings() map[string]string {
	b := map[string]string{
		"%":       "split-window -h",
		`"`:       "split-window -v",
		"c":       "new-window",
		"d":       "detach-client",
		"n":       "next-window",
		"p":       "previous-window",
		"l":       "last-window",
		"w":       "choose-window",
		",":       "rename-window",
		"$":       "rename-session",
		"&":       "kill-window",
		"x":       "kill-pane",
		"z":       "zoom",
		"[":       "copy-mode",
		"]":       "paste-buffer",
		"PageUp":  "copy-mode scroll-back",
		":":       "command-prompt",
		"t":       "clock-mode",
		"?":       "list-keys",
		"o":       "select-pane -t :.+",
		";":       "last-pane",
		"{":       "swap-pane -U",
		"}":       "swap-pane -D",
		"Space":   "next-layout",
		"Up":      "select-pane -U",
		"Down":    "select-pane -D",
		"Left":    "select-pane -L",
		"Right":   "select-pane -R",
		"C-Up":    "resize-pane -U 1",
		"C-Down":  "resize-pane -D 1",
		"C-Left":  "resize-pane -L 1",
		"C-Right": "resize-pane -R 1",
	}
	for n := 0; n <= 9; n++ {
		b[strconv.Itoa(n)] = fmt.Sprintf("select-window -t %d", n)
	}
	return b
}

// DefaultConfig returns option defaults and key bindings exactly as listed
// in spec.md §6.
func DefaultConfig() *Config {
	prefix, _ := ParseKey("C-b")
	return &Config{
		Options: Options{
			Status:                true,
			StatusLeft:            "[#{session_name}] ",
			StatusRight:           " %H:%M %Y-%m-%d",
			StatusInterval:        1,
			BaseIndex:             0,
			RenumberWindows:       false,
			AutomaticRename:       true,
			DefaultShell:          defaultShellForPlatform(),
			DefaultTerminal:       "xterm-256color",
			EscapeTime:            500,
			HistoryLimit:          2000,
			Mouse:                 false,
			Prefix:                prefix,
			DisplayTime:           750,
			DisplayPanesTime:      1000,
			PaneBorderStyle:       "",
			PaneActiveBorderStyle: "",
		},
		Bindings: defaultBindings(),
		Unbound:  map[string]string{},
	}
}

// Load reads path and applies its directives on top of DefaultConfig. A
// missing file is not an error (spec.md §6: "a missing or unparseable line
// never aborts startup"); unparseable lines are logged and skipped.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := applyFile(cfg, path, 0); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	return cfg, nil
}

// SourceFile applies path's directives onto cfg in place, for the
// "source-file"/"source" command (spec.md §4.6) issued at runtime rather
// than at startup.
func SourceFile(cfg *Config, path string) error {
	return applyFile(cfg, path, 0)
}

// SetOption applies one "set-option" assignment to cfg in place, for the
// "set-option"/"set" command (spec.md §4.6) issued at runtime.
func SetOption(cfg *Config, name, value string) error {
	return setOption(cfg, name, value)
}

func applyFile(cfg *Config, path string, depth int) error {
	if depth > maxSourceDepth {
		return fmt.Errorf("config: source-file nesting too deep at %q", path)
	}
	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyDirective(cfg, line, filepath.Dir(path), depth); err != nil {
			slog.Warn("[WARN-CONFIG] skipping unparseable directive",
				"path", path, "line", lineNo, "text", line, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	return nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	limited := io.LimitReader(f, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

// applyDirective parses and applies one directive line (spec.md §6:
// "set-option|set [-g] NAME VALUE", "bind-key|bind [-n] KEY COMMAND",
// "unbind-key|unbind KEY", "source-file|source PATH").
func applyDirective(cfg *Config, line string, baseDir string, depth int) error {
	tokens, err := tokenize(line)
	if err != nil || len(tokens) == 0 {
		return fmt.Errorf("config: %w", err)
	}
	switch tokens[0] {
	case "set-option", "set":
		args := tokens[1:]
		args = dropFlag(args, "-g")
		if len(args) < 2 {
			return fmt.Errorf("config: set-option requires NAME VALUE")
		}
		return setOption(cfg, args[0], strings.Join(args[1:], " "))
	case "bind-key", "bind":
		args := tokens[1:]
		noPrefix := false
		if has, rest := takeFlag(args, "-n"); has {
			noPrefix = true
			args = rest
		}
		if len(args) < 2 {
			return fmt.Errorf("config: bind-key requires KEY COMMAND")
		}
		k, err := ParseKey(args[0])
		if err != nil {
			return err
		}
		if noPrefix {
			cfg.Unbound[k.String()] = strings.Join(args[1:], " ")
		} else {
			cfg.Bindings[k.String()] = strings.Join(args[1:], " ")
		}
		return nil
	case "unbind-key", "unbind":
		args := tokens[1:]
		if len(args) < 1 {
			return fmt.Errorf("config: unbind-key requires KEY")
		}
		k, err := ParseKey(args[0])
		if err != nil {
			return err
		}
		delete(cfg.Bindings, k.String())
		delete(cfg.Unbound, k.String())
		return nil
	case "source-file", "source":
		if len(tokens) < 2 {
			return fmt.Errorf("config: source-file requires PATH")
		}
		path := tokens[1]
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return applyFile(cfg, path, depth+1)
	default:
		return fmt.Errorf("config: unrecognised directive %q", tokens[0])
	}
}

func dropFlag(args []string, flag string) []string {
	_, rest := takeFlag(args, flag)
	return rest
}

func takeFlag(args []string, flag string) (bool, []string) {
	for i, a := range args {
		if a == flag {
			out := make([]string, 0, len(args)-1)
			out = append(out, args[:i]...)
			out = append(out, args[i+1:]...)
			return true, out
		}
	}
	return false, args
}

func setOption(cfg *Config, name, value string) error {
	o := &cfg.Options
	switch name {
	case "status":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		o.Status = b
	case "status-left":
		o.StatusLeft = value
	case "status-right":
		o.StatusRight = value
	case "status-interval":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: status-interval: %w", err)
		}
		o.StatusInterval = n
	case "base-index":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: base-index: %w", err)
		}
		o.BaseIndex = n
	case "renumber-windows":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		o.RenumberWindows = b
	case "automatic-rename":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		o.AutomaticRename = b
	case "default-shell":
		o.DefaultShell = value
	case "default-terminal":
		o.DefaultTerminal = value
	case "escape-time":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: escape-time: %w", err)
		}
		o.EscapeTime = n
	case "history-limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: history-limit: %w", err)
		}
		o.HistoryLimit = n
	case "mouse":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		o.Mouse = b
	case "prefix":
		k, err := ParseKey(value)
		if err != nil {
			return err
		}
		o.Prefix = k
	case "display-time":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: display-time: %w", err)
		}
		o.DisplayTime = n
	case "display-panes-time":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: display-panes-time: %w", err)
		}
		o.DisplayPanesTime = n
	case "pane-border-style":
		o.PaneBorderStyle = value
	case "pane-active-border-style":
		o.PaneActiveBorderStyle = value
	default:
		return fmt.Errorf("config: unknown option %q", name)
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("config: invalid boolean %q", v)
}

// tokenize splits a directive line on whitespace, honouring double-quoted
// spans so values like status-left's default (which contains spaces) can be
// written as one token.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	hasCur := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			hasCur = true
		case c == ' ' || c == '\t':
			if inQuotes {
				cur.WriteByte(c)
				continue
			}
			if hasCur {
				tokens = append(tokens, cur.String())
				cur.Reset()
				hasCur = false
			}
		default:
			cur.WriteByte(c)
			hasCur = true
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated quote")
	}
	if hasCur {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// Watch starts an fsnotify watch on path and calls onChange with the newly
// reloaded config whenever the file is written. The returned stop function
// closes the watcher. Reload failures are logged and keep the previous
// config in place (spec.md §6: config-load errors are warnings).
func Watch(path string, onChange func(*Config)) (stop func() error, err error) {
	if path == "" {
		return func() error { return nil }, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %q: %w", dir, err)
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, loadErr := Load(path)
				if loadErr != nil {
					slog.Warn("[WARN-CONFIG] reload failed, keeping previous config", "path", path, "error", loadErr)
					continue
				}
				onChange(cfg)
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("[WARN-CONFIG] watcher error", "error", werr)
			}
		}
	}()
	return w.Close, nil
}
