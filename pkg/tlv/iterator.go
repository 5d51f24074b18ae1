// Package tlv decodes Tag-Length-Value data returned by smart cards.
//
// Two encodings are handled:
//
//   - The simple form (one tag byte, one length byte, value), walked lazily by
//     Iterator without allocating. Every TaggedSlice aliases the input slice.
//   - BER-TLV (multi-byte tags and lengths, constructed templates), decoded with
//     github.com/moov-io/bertlv and mapped onto Go structs via `tlv` struct tags.
package tlv

import "fmt"

// TaggedSlice is one simple-TLV entry. Value is a view into the decoded buffer
// and is only valid while that buffer is left untouched.
type TaggedSlice struct {
	Tag   byte
	Value []byte
}

func (s TaggedSlice) String() string {
	return fmt.Sprintf("%02X[%d]: %X", s.Tag, len(s.Value), s.Value)
}

// splitTagged decodes the entry at the head of data and returns it with the rest.
// It reports false when data is shorter than a header or than the declared length.
func splitTagged(data []byte) (TaggedSlice, []byte, bool) {
	if len(data) < 2 {
		return TaggedSlice{}, nil, false
	}

	length := int(data[1])
	if len(data) < 2+length {
		return TaggedSlice{}, nil, false
	}

	return TaggedSlice{Tag: data[0], Value: data[2 : 2+length]}, data[2+length:], true
}

// Iterator walks a simple-TLV sequence one entry at a time.
// Iteration ends silently on the first malformed entry. An exhausted Iterator
// stays exhausted; build a new one from the original data to walk it again.
type Iterator struct {
	data []byte
	done bool
}

// NewIterator returns an Iterator over data.
func NewIterator(data []byte) Iterator {
	return Iterator{data: data}
}

// Next returns the next entry, or false once the sequence is exhausted.
func (it *Iterator) Next() (TaggedSlice, bool) {
	if it.done {
		return TaggedSlice{}, false
	}

	slice, rest, ok := splitTagged(it.data)
	if !ok {
		it.done = true
		it.data = nil
		return TaggedSlice{}, false
	}

	it.data = rest
	return slice, true
}

// Find consumes entries until one carries tag and returns it.
func (it *Iterator) Find(tag byte) (TaggedSlice, bool) {
	for {
		slice, ok := it.Next()
		if !ok {
			return TaggedSlice{}, false
		}
		if slice.Tag == tag {
			return slice, true
		}
	}
}

// Remaining returns the bytes not yet consumed, including a malformed tail
// that has not been reached yet.
func (it *Iterator) Remaining() []byte {
	return it.data
}

// Find returns the first entry of data carrying tag.
func Find(data []byte, tag byte) (TaggedSlice, bool) {
	it := NewIterator(data)
	return it.Find(tag)
}
