// Package bertlv implements the subset of ISO/IEC 8825-1 BER-TLV used by
// ISO 7816-4 APDU payloads: tags of up to three octets and definite lengths.
package bertlv

import "io"

// Element is a decoded TLV element. Constructed elements carry their
// parsed children; primitive elements carry only Value.
type Element struct {
	Tag      Tag
	Value    []byte
	Children []Element
}

// Parse decodes every top-level element in data, descending into
// constructed elements.
func Parse(data []byte) ([]Element, error) {
	r := NewReader(data)
	var elems []Element
	for {
		if err := r.Next(); err != nil {
			if err == io.EOF {
				return elems, nil
			}
			return nil, err
		}
		e := Element{Tag: r.Tag(), Value: r.Value()}
		if e.Tag.Constructed() {
			children, err := Parse(e.Value)
			if err != nil {
				return nil, err
			}
			e.Children = children
		}
		elems = append(elems, e)
	}
}

// Find returns the first element with the given tag.
func Find(elems []Element, tag Tag) (Element, bool) {
	for _, e := range elems {
		if e.Tag == tag {
			return e, true
		}
	}
	return Element{}, false
}

// Encode returns the TLV encoding of the element. Children, when present,
// take precedence over Value.
func (e Element) Encode() ([]byte, error) {
	w := NewWriter()
	if err := e.writeTo(w); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e Element) writeTo(w *Writer) error {
	if len(e.Children) == 0 || !e.Tag.Constructed() {
		return w.put(e.Tag, e.Value)
	}
	if err := w.StartConstructed(e.Tag); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := c.writeTo(w); err != nil {
			return err
		}
	}
	return w.EndConstructed()
}
