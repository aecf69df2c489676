package bot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frames are length-prefixed so a reader always knows where a record
// ends, regardless of how the OS chunks the pipe. Anything larger than
// maxFrame is treated as a corrupt stream.
const maxFrame = 1 << 24

// Encoder writes length-prefixed msgpack records, flushing after each
// one so the peer never waits on a buffered partial frame.
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) Encode(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal: %w", err)
	}
	// Both ends share one frame limit; emitting a record the peer would
	// reject just breaks the stream later.
	if len(payload) > maxFrame {
		return fmt.Errorf("wire: record of %d bytes exceeds limit", len(payload))
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := e.w.Write(prefix[:]); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	if _, err := e.w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return e.w.Flush()
}

// Decoder reads length-prefixed msgpack records.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) Decode(v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(d.r, prefix[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrame {
		return fmt.Errorf("wire: frame of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return fmt.Errorf("wire: read frame: %w", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire: unmarshal: %w", err)
	}
	return nil
}
