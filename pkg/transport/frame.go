package transport

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// LengthPrefixSize is the size of the little-endian frame length.
	LengthPrefixSize = 4

	// MaxFrameSize bounds a single frame.
	MaxFrameSize = 64 * 1024
)

// StreamWriter wraps an io.Writer to add length-prefix framing.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter creates a new stream writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteFrame writes frame with a 4-byte little-endian length prefix in a
// single Write, so packet-oriented connections carry one frame per packet.
func (sw *StreamWriter) WriteFrame(frame []byte) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}
	if len(frame) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	_, err := sw.w.Write(EncodeWithLengthPrefix(frame))
	return err
}

// StreamReader wraps an io.Reader to read length-prefixed frames.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader creates a new stream reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadFrame reads one frame and returns it without the length prefix.
// A clean end of stream before a prefix returns io.EOF.
func (sr *StreamReader) ReadFrame() ([]byte, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Join(ErrStreamRead, err)
	}

	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return nil, ErrEmptyFrame
	}
	if frameLen > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(sr.r, frame); err != nil {
		return nil, errors.Join(ErrStreamRead, err)
	}
	return frame, nil
}

// EncodeWithLengthPrefix adds a 4-byte length prefix to frame data.
func EncodeWithLengthPrefix(frame []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(frame))
	binary.LittleEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(frame)))
	copy(buf[LengthPrefixSize:], frame)
	return buf
}
