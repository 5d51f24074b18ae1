package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// BER-TLV STRUCT MAPPING:
// Fields are bound to tags with the `tlv` struct tag, e.g. `tlv:"84"`.
// Supported field kinds:
//   - []byte: raw value (constructed values are re-encoded).
//   - string: hex representation of the value.
//   - struct or *struct: nested template, decoded recursively.
//   - slice of structs: one element per occurrence of the tag.
//   - types implementing Unmarshaler.
// A field tagged `tlv:",unknown"` (or named Unknown) of type []bertlv.TLV
// collects the entries no other field consumed.

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// UnmarshalBER decodes BER-TLV data and maps it onto target, a non-nil struct pointer.
func UnmarshalBER(data []byte, target any) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalPackets(packets, target)
}

// UnmarshalPackets maps already decoded entries onto target.
func UnmarshalPackets(packets []bertlv.TLV, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %T", target)
	}

	consumed := make([]bool, len(packets))
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := v.Type().Field(i)
		tag := sf.Tag.Get("tlv")

		if tag == ",unknown" || sf.Name == "Unknown" {
			unknown = field
			continue
		}
		if tag == "" {
			continue
		}

		want := strings.ToUpper(strings.SplitN(tag, ",", 2)[0])
		for idx, p := range packets {
			if !strings.EqualFold(p.Tag, want) {
				continue
			}
			if err := assign(field, p); err != nil {
				return fmt.Errorf("tag %s -> %s: %w", want, sf.Name, err)
			}
			consumed[idx] = true
		}
	}

	if !unknown.IsValid() || !unknown.CanSet() || unknown.Type() != reflect.TypeOf([]bertlv.TLV(nil)) {
		return nil
	}

	var leftovers []bertlv.TLV
	for idx, p := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, p)
		}
	}
	if len(leftovers) > 0 {
		unknown.Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func assign(field reflect.Value, p bertlv.TLV) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeInto(elem, p); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeInto(field, p)
}

func decodeInto(field reflect.Value, p bertlv.TLV) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(p))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(p))
	case field.Kind() == reflect.String:
		field.SetString(hex.EncodeToString(p.Value))
	case field.Kind() == reflect.Struct:
		return decodeTemplate(field.Addr().Interface(), p)
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeTemplate(field.Interface(), p)
	}
	return nil
}

func decodeTemplate(target any, p bertlv.TLV) error {
	if len(p.TLVs) > 0 {
		return UnmarshalPackets(p.TLVs, target)
	}
	return UnmarshalBER(p.Value, target)
}

// rawValue returns the value of p, re-encoding children of a constructed entry.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

// FindBER returns the value of the first top-level BER-TLV entry carrying tag.
func FindBER(data []byte, tag string) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, err
	}

	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return rawValue(p), nil
		}
	}
	return nil, fmt.Errorf("tag %s not found", strings.ToUpper(tag))
}

// Children returns the nested entries of the first top-level entry carrying
// tag, or packets itself when no such template wraps them.
func Children(packets []bertlv.TLV, tag string) []bertlv.TLV {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return p.TLVs
		}
	}
	return packets
}
