// Package transport carries framed protocol messages between client and
// server over a reliable, ordered, bidirectional byte stream (spec.md §1,
// §6): a Unix domain socket on POSIX, a Windows named pipe via
// github.com/Microsoft/go-winio, grounded on the teacher's internal/ipc
// package (PipeServer/Send), generalized from the teacher's single
// newline-delimited request/response exchange to spec.md's explicit
// u32-le length-prefixed framing over a long-lived, multi-message
// connection per client.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameBytes is the largest payload accepted in one frame (spec.md §6:
// "Messages larger than 16 MiB are rejected").
const MaxFrameBytes = 16 << 20

// WriteFrame writes a u32-le length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameBytes {
		return fmt.Errorf("transport: frame of %d bytes exceeds %d byte limit", len(payload), MaxFrameBytes)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("transport: write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one u32-le length-prefixed frame, rejecting lengths over
// MaxFrameBytes (spec.md §6).
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(header[:])
	if n > MaxFrameBytes {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds %d byte limit", n, MaxFrameBytes)
	}
	if n == 0 {
		return nil, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("transport: read frame payload: %w", err)
	}
	return payload, nil
}
