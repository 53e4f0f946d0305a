//go:build windows

package transport

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"regexp"
	"strings"
	"time"

	"github.com/Microsoft/go-winio"
)

const dialTimeout = 5 * time.Second

func pipeName(addr string) string {
	return `\\.\pipe\wtmux-` + addr
}

// Listen opens the server's named pipe, restricted via DACL to SYSTEM and
// the current user, grounded on the teacher's internal/ipc
// listenPipeWithCurrentUserDACL.
func Listen(addr string) (net.Listener, error) {
	sd, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	l, err := winio.ListenPipe(pipeName(addr), &winio.PipeConfig{
		SecurityDescriptor: sd,
		MessageMode:        false,
		InputBufferSize:    int32(MaxFrameBytes >> 4),
		OutputBufferSize:   int32(MaxFrameBytes >> 4),
	})
	if err != nil {
		return nil, fmt.Errorf("transport: listen pipe %q: %w", pipeName(addr), err)
	}
	return l, nil
}

// Dial connects to the server's named pipe.
func Dial(addr string) (net.Conn, error) {
	timeout := dialTimeout
	conn, err := winio.DialPipe(pipeName(addr), &timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial pipe %q: %w", pipeName(addr), err)
	}
	return conn, nil
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("transport: resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("transport: current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("transport: current user SID has unexpected format: %s", sid)
	}
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
