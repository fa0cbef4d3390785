package bertlv

import (
	"fmt"
	"io"
)

// Class is the tag class encoded in bits 8-7 of the first tag octet.
type Class uint8

const (
	ClassUniversal       Class = 0x00
	ClassApplication     Class = 0x40
	ClassContextSpecific Class = 0x80
	ClassPrivate         Class = 0xC0
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "Universal"
	case ClassApplication:
		return "Application"
	case ClassContextSpecific:
		return "ContextSpecific"
	case ClassPrivate:
		return "Private"
	default:
		return "Unknown"
	}
}

const (
	constructedBit = 0x20
	multiByteMask  = 0x1F
	moreOctetsBit  = 0x80

	// MaxTagSize is the largest tag this package accepts (three octets).
	MaxTagSize = 3
)

// singleOctetTags are read and written as one octet even though their low
// five bits are set. Digital key messages use 5F for the selected version.
var singleOctetTags = map[byte]bool{
	0x5F: true,
}

// Tag is a BER tag stored as its encoded octets packed big-endian,
// so 0x7F50 is the two-octet tag 7F 50.
type Tag uint32

// Class returns the class of the tag.
func (t Tag) Class() Class {
	return Class(t.firstOctet() & 0xC0)
}

// Constructed reports whether the tag carries the constructed bit.
func (t Tag) Constructed() bool {
	return t.firstOctet()&constructedBit != 0
}

// Size returns the number of octets in the encoded tag.
func (t Tag) Size() int {
	switch {
	case t > 0xFFFF:
		return 3
	case t > 0xFF:
		return 2
	default:
		return 1
	}
}

// Bytes returns the encoded tag octets.
func (t Tag) Bytes() []byte {
	n := t.Size()
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[n-1-i] = byte(t >> (8 * i))
	}
	return b
}

// String returns the tag as uppercase hex, e.g. "7F50".
func (t Tag) String() string {
	return fmt.Sprintf("%0*X", t.Size()*2, uint32(t))
}

// Valid reports whether the packed octets form a well-formed BER tag.
func (t Tag) Valid() bool {
	if t == 0 {
		return false
	}
	b := t.Bytes()
	if len(b) == 1 && singleOctetTags[b[0]] {
		return true
	}
	if b[0]&multiByteMask != multiByteMask {
		return len(b) == 1
	}
	if len(b) == 1 {
		return false
	}
	for i := 1; i < len(b)-1; i++ {
		if b[i]&moreOctetsBit == 0 {
			return false
		}
	}
	return b[len(b)-1]&moreOctetsBit == 0
}

func (t Tag) firstOctet() byte {
	return t.Bytes()[0]
}

// ReadTag reads a tag from r.
func ReadTag(r io.ByteReader) (Tag, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	tag := Tag(b)
	if b&multiByteMask != multiByteMask || singleOctetTags[b] {
		return tag, nil
	}
	for i := 1; i < MaxTagSize; i++ {
		b, err = r.ReadByte()
		if err != nil {
			return 0, ErrUnexpectedEOF
		}
		tag = tag<<8 | Tag(b)
		if b&moreOctetsBit == 0 {
			return tag, nil
		}
	}
	return 0, ErrInvalidTag
}

// ReadLength reads a definite length in short or long form.
func ReadLength(r io.ByteReader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, ErrUnexpectedEOF
	}
	if b < 0x80 {
		return int(b), nil
	}
	if b == 0x80 {
		return 0, ErrIndefiniteLength
	}
	n := int(b & 0x7F)
	if n > 3 {
		return 0, ErrLengthTooLarge
	}
	length := 0
	for i := 0; i < n; i++ {
		b, err = r.ReadByte()
		if err != nil {
			return 0, ErrUnexpectedEOF
		}
		length = length<<8 | int(b)
	}
	return length, nil
}

// AppendLength appends the minimal definite encoding of length to dst.
func AppendLength(dst []byte, length int) ([]byte, error) {
	switch {
	case length < 0:
		return nil, ErrLengthTooLarge
	case length < 0x80:
		return append(dst, byte(length)), nil
	case length <= 0xFF:
		return append(dst, 0x81, byte(length)), nil
	case length <= 0xFFFF:
		return append(dst, 0x82, byte(length>>8), byte(length)), nil
	case length <= 0xFFFFFF:
		return append(dst, 0x83, byte(length>>16), byte(length>>8), byte(length)), nil
	default:
		return nil, ErrLengthTooLarge
	}
}
