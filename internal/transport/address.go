package transport

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"wtmux/internal/userutil"
)

// DefaultAddress returns the per-user address wtmuxd listens on and wtmux
// dials by default: the current, sanitized username, which Listen and Dial
// turn into the socket path (POSIX) or pipe name (Windows), matching the
// teacher's DefaultPipeName convention of scoping the address to the
// current, sanitized username (spec.md §6: "a local IPC pipe named after
// the current user").
func DefaultAddress() string {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return userutil.SanitizeUsername(name)
}

// socketDir returns the directory POSIX Unix-domain socket files live in,
// preferring $XDG_RUNTIME_DIR, then $TMPDIR, falling back to os.TempDir().
func socketDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("TMPDIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func socketPath(addr string) string {
	return filepath.Join(socketDir(), fmt.Sprintf("wtmux-%s.sock", addr))
}
