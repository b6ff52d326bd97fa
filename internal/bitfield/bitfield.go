// Package bitfield packs and unpacks struct fields into integers using
// struct tags, a simplified port of golang.org/x/text/internal/gen/bitfield
// kept from the reference tree (mazarin/bitfield) and extended with an
// Unpack counterpart so callers (the page allocator's flags word, the OTFS
// open-file table's flags nibble) can round-trip rather than only pack.
package bitfield

import (
	"fmt"
	"reflect"
)

// Config determines settings for packing and unpacking.
type Config struct {
	// NumBits fixes the maximum allowed bits for the integer representation.
	NumBits uint
}

// Pack packs annotated bit ranges of struct x into an integer. Only fields
// tagged `bitfield:",N"` are packed, in field declaration order, least
// significant bits first.
func Pack(x interface{}, c *Config) (packed uint64, err error) {
	if c == nil {
		c = &Config{NumBits: 64}
	}

	v := reflect.ValueOf(x)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, fmt.Errorf("bitfield: Pack expected struct, got %v", v.Kind())
	}

	t := v.Type()
	var bitOffset uint

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		bits, ok, err := fieldBits(field)
		if err != nil {
			return 0, err
		}
		if !ok || bits == 0 {
			continue
		}

		fieldValue := v.Field(i)
		var fieldBits uint64

		switch fieldValue.Kind() {
		case reflect.Bool:
			if fieldValue.Bool() {
				fieldBits = 1
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fieldBits = fieldValue.Uint()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			val := fieldValue.Int()
			if val < 0 {
				return 0, fmt.Errorf("bitfield: Pack negative value %d for field %s", val, field.Name)
			}
			fieldBits = uint64(val)
		default:
			return 0, fmt.Errorf("bitfield: Pack unsupported field type %v for field %s", fieldValue.Kind(), field.Name)
		}

		maxValue := uint64((1 << bits) - 1)
		if fieldBits > maxValue {
			return 0, fmt.Errorf("bitfield: Pack value %d exceeds %d bits for field %s", fieldBits, bits, field.Name)
		}

		packed |= fieldBits << bitOffset
		bitOffset += bits
	}

	if c.NumBits > 0 && bitOffset > c.NumBits {
		return 0, fmt.Errorf("bitfield: Pack total bits %d exceeds NumBits %d", bitOffset, c.NumBits)
	}

	return packed, nil
}

// Unpack spreads packed back into the annotated fields of the struct
// pointed to by out, the inverse of Pack.
func Unpack(packed uint64, out interface{}, c *Config) error {
	if c == nil {
		c = &Config{NumBits: 64}
	}

	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bitfield: Unpack expected pointer to struct, got %v", v.Kind())
	}
	v = v.Elem()
	t := v.Type()
	var bitOffset uint

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		bits, ok, err := fieldBits(field)
		if err != nil {
			return err
		}
		if !ok || bits == 0 {
			continue
		}

		mask := uint64((1 << bits) - 1)
		fieldBits := (packed >> bitOffset) & mask
		bitOffset += bits

		fieldValue := v.Field(i)
		switch fieldValue.Kind() {
		case reflect.Bool:
			fieldValue.SetBool(fieldBits != 0)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fieldValue.SetUint(fieldBits)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fieldValue.SetInt(int64(fieldBits))
		default:
			return fmt.Errorf("bitfield: Unpack unsupported field type %v for field %s", fieldValue.Kind(), field.Name)
		}
	}

	return nil
}

func fieldBits(field reflect.StructField) (bits uint, ok bool, err error) {
	tag := field.Tag.Get("bitfield")
	if tag == "" {
		return 0, false, nil
	}

	var n uint
	if _, scanErr := fmt.Sscanf(tag, ",%d", &n); scanErr != nil {
		return 0, false, fmt.Errorf("bitfield: invalid tag %q on field %s", tag, field.Name)
	}
	return n, true, nil
}
