// Package journal implements the write-ahead log: an append-only sequence
// of length-prefixed command frames, replayable from empty state to
// reproduce an identical command stream. Framing is little-endian; the
// hand-rolled encoding/binary style follows internal/net/messages.go's
// established idiom for anything that must round-trip over a byte
// boundary (see DESIGN.md for why no third-party struct codec is used
// here instead).
package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"matchcore/internal/common"
)

// writeBufferSize is the minimum buffered-writer size: buffered (>= 64
// KiB) and flushed after each command.
const writeBufferSize = 64 * 1024

// ErrShortFrame names a frame whose length prefix claims more payload bytes
// than remain in the file. Replay does not return it: it treats such a
// truncated tail as the end of the journal and returns nil.
var ErrShortFrame = errors.New("journal: truncated frame at end of file")

// Writer appends command frames to an open journal file.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
}

// Create opens path for appending, creating it if necessary, and wraps it
// in a >=64KiB buffered writer.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Writer{file: f, buf: bufio.NewWriterSize(f, writeBufferSize)}, nil
}

// Append writes cmd as one frame and flushes immediately, so every
// acknowledged command is durable before the next one is appended.
func (w *Writer) Append(cmd *common.Command) error {
	payload := encodeCommand(cmd)

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(payload)))

	if _, err := w.buf.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("journal: write length prefix: %w", err)
	}
	if _, err := w.buf.Write(payload); err != nil {
		return fmt.Errorf("journal: write payload: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("journal: flush: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("journal: flush on close: %w", err)
	}
	return w.file.Close()
}

// Replay reads every frame in path in order and invokes fn with the
// decoded command, stopping cleanly at a well-formed EOF or at a
// truncated trailing frame.
func Replay(path string, fn func(*common.Command)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var lenPrefix [4]byte
		if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return nil // mid-length EOF: stop replay cleanly
		}
		frameLen := binary.LittleEndian.Uint32(lenPrefix[:])

		payload := make([]byte, frameLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil // mid-payload EOF: stop replay cleanly
		}

		cmd, err := decodeCommand(payload)
		if err != nil {
			return fmt.Errorf("journal: decode frame: %w", err)
		}
		fn(cmd)
	}
}
