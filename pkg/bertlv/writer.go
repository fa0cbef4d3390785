package bertlv

// Writer builds a TLV byte sequence. Constructed elements are buffered
// until EndConstructed so their length can be written first.
type Writer struct {
	buf   []byte
	stack []frame
}

type frame struct {
	tag Tag
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// PutBytes writes a primitive element.
func (w *Writer) PutBytes(tag Tag, value []byte) error {
	if tag.Constructed() {
		return ErrPrimitiveTag
	}
	return w.put(tag, value)
}

// PutByte writes a primitive element with a single-octet value.
func (w *Writer) PutByte(tag Tag, v byte) error {
	return w.PutBytes(tag, []byte{v})
}

// PutUint16 writes a primitive element with a 2-octet big-endian value.
func (w *Writer) PutUint16(tag Tag, v uint16) error {
	return w.PutBytes(tag, []byte{byte(v >> 8), byte(v)})
}

// PutUint32 writes a primitive element with a 4-octet big-endian value.
func (w *Writer) PutUint32(tag Tag, v uint32) error {
	return w.PutBytes(tag, []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// StartConstructed opens a constructed element.
func (w *Writer) StartConstructed(tag Tag) error {
	if !tag.Valid() {
		return ErrInvalidTag
	}
	if !tag.Constructed() {
		return ErrNotConstructed
	}
	w.stack = append(w.stack, frame{tag: tag})
	return nil
}

// EndConstructed closes the innermost constructed element.
func (w *Writer) EndConstructed() error {
	if len(w.stack) == 0 {
		return ErrNotInContainer
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return w.put(top.tag, top.buf)
}

// Bytes returns the encoded output.
func (w *Writer) Bytes() ([]byte, error) {
	if len(w.stack) != 0 {
		return nil, ErrContainerNotClosed
	}
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out, nil
}

func (w *Writer) put(tag Tag, value []byte) error {
	if !tag.Valid() {
		return ErrInvalidTag
	}
	dst := w.current()
	dst = append(dst, tag.Bytes()...)
	dst, err := AppendLength(dst, len(value))
	if err != nil {
		return err
	}
	dst = append(dst, value...)
	w.setCurrent(dst)
	return nil
}

func (w *Writer) current() []byte {
	if n := len(w.stack); n > 0 {
		return w.stack[n-1].buf
	}
	return w.buf
}

func (w *Writer) setCurrent(b []byte) {
	if n := len(w.stack); n > 0 {
		w.stack[n-1].buf = b
		return
	}
	w.buf = b
}
