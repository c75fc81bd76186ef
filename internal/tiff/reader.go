package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Field is one decoded IFD entry with its raw value bytes.
type Field struct {
	Type  uint16
	Count uint32
	Value []byte
	order binary.ByteOrder
}

// Uint returns the i-th SHORT or LONG value.
func (f Field) Uint(i int) (uint32, error) {
	switch f.Type {
	case typeShort:
		if 2*i+2 > len(f.Value) {
			return 0, errors.New("index out of range")
		}
		return uint32(f.order.Uint16(f.Value[2*i:])), nil
	case typeLong:
		if 4*i+4 > len(f.Value) {
			return 0, errors.New("index out of range")
		}
		return f.order.Uint32(f.Value[4*i:]), nil
	default:
		return 0, fmt.Errorf("field type %d is not integral", f.Type)
	}
}

// Rational returns the first RATIONAL value as numerator and denominator.
func (f Field) Rational() (uint32, uint32, error) {
	if f.Type != typeRational || len(f.Value) < 8 {
		return 0, 0, errors.New("field is not a rational")
	}
	return f.order.Uint32(f.Value), f.order.Uint32(f.Value[4:]), nil
}

func typeSize(t uint16) int {
	switch t {
	case typeByte, typeASCII, typeUndefined, 6:
		return 1
	case typeShort, 8:
		return 2
	case typeLong, 9, 11:
		return 4
	case typeRational, 10, 12:
		return 8
	default:
		return 0
	}
}

// ReadFields decodes the first IFD of a TIFF stream.
func ReadFields(data []byte) (map[uint16]Field, error) {
	if len(data) < 8 {
		return nil, errors.New("TIFF header too short")
	}
	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(data, []byte("II*\x00")):
		order = binary.LittleEndian
	case bytes.HasPrefix(data, []byte("MM\x00*")):
		order = binary.BigEndian
	default:
		return nil, errors.New("missing TIFF byte-order mark")
	}

	off := int(order.Uint32(data[4:8]))
	if off+2 > len(data) {
		return nil, fmt.Errorf("IFD offset %d out of range", off)
	}
	n := int(order.Uint16(data[off:]))
	if off+2+12*n > len(data) {
		return nil, errors.New("IFD overruns data")
	}

	fields := make(map[uint16]Field, n)
	for i := 0; i < n; i++ {
		e := data[off+2+12*i:]
		tag := order.Uint16(e[0:2])
		typ := order.Uint16(e[2:4])
		count := order.Uint32(e[4:8])
		size := typeSize(typ) * int(count)
		if size == 0 {
			continue
		}
		var value []byte
		if size <= 4 {
			value = e[8 : 8+size]
		} else {
			vo := int(order.Uint32(e[8:12]))
			if vo < 0 || vo+size > len(data) {
				return nil, fmt.Errorf("tag %d value overruns data", tag)
			}
			value = data[vo : vo+size]
		}
		fields[tag] = Field{Type: typ, Count: count, Value: value, order: order}
	}
	return fields, nil
}

// ReadICC returns the InterColorProfile tag of the first IFD, or nil.
func ReadICC(data []byte) ([]byte, error) {
	fields, err := ReadFields(data)
	if err != nil {
		return nil, err
	}
	f, ok := fields[TagInterColorProfile]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(f.Value), nil
}
