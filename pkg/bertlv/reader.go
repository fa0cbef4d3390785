package bertlv

import (
	"bytes"
	"errors"
	"io"
)

// Reader walks TLV elements in a byte slice one at a time.
type Reader struct {
	r *bytes.Reader

	hasElement bool
	tag        Tag
	value      []byte
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Next advances to the next element.
// Returns io.EOF when the input is exhausted on an element boundary.
func (r *Reader) Next() error {
	r.hasElement = false
	if r.r.Len() == 0 {
		return io.EOF
	}

	tag, err := ReadTag(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrUnexpectedEOF
		}
		return err
	}
	length, err := ReadLength(r.r)
	if err != nil {
		return err
	}
	if length > r.r.Len() {
		return ErrUnexpectedEOF
	}
	value := make([]byte, length)
	if _, err := io.ReadFull(r.r, value); err != nil {
		return ErrUnexpectedEOF
	}

	r.tag = tag
	r.value = value
	r.hasElement = true
	return nil
}

// Tag returns the tag of the current element.
func (r *Reader) Tag() Tag {
	return r.tag
}

// Value returns the raw value octets of the current element.
func (r *Reader) Value() []byte {
	if !r.hasElement {
		return nil
	}
	return r.value
}

// Children parses the current element's value as nested elements.
func (r *Reader) Children() ([]Element, error) {
	if !r.hasElement {
		return nil, ErrNoElement
	}
	if !r.tag.Constructed() {
		return nil, ErrNotConstructed
	}
	return Parse(r.value)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.r.Len()
}
