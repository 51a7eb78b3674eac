// Package dtype defines the element types and byte orders an array header
// can declare, plus the parser for NumPy-style dtype codes.
//
// A dtype code is a compact string grammar: an optional byte-order
// character ('<' little, '>' big, '|' not applicable), a type character
// ('f' float, 'i' signed int, 'u' unsigned int, 'b' bool, 'S' byte string,
// 'U' unicode string), and a width in bytes (for strings, the declared
// length). For example "<f8" is a little-endian 64-bit float and "|S16" is
// a 16-byte fixed-length string.
//
// The mapping from codes to element types is total and explicit: unknown
// combinations are rejected with a FormatError rather than defaulting to
// byte data, so a corrupt descr cannot masquerade as a valid array.
package dtype

import (
	"strconv"

	"github.com/minghsu/npview/errs"
)

type (
	// ElementType is a closed tag identifying the scalar type of array
	// elements. Downstream consumers dispatch on this tag and never
	// re-inspect the dtype code.
	ElementType uint8

	// ByteOrder identifies the byte order declared by an array header.
	// It is resolved per header and applied uniformly to every multi-byte
	// read in that array.
	ByteOrder uint8
)

const (
	Invalid ElementType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
)

const (
	// Little is little-endian byte order, the NumPy default on x86/ARM.
	Little ByteOrder = iota
	// Big is big-endian byte order.
	Big
	// Native means the header declared no byte order ('|'); reads resolve
	// to the host's own order.
	Native
)

// DType is a fully resolved dtype code: element type, byte order, and the
// declared width. For strings, Size is the declared length (bytes for 'S',
// characters for 'U'); for all other types Size equals Type.Width().
type DType struct {
	Type    ElementType
	Order   ByteOrder
	Size    int
	Unicode bool
}

// Width returns the fixed byte width of the element type. String reports 1
// (the terminator-scan unit); callers decoding fixed-length strings use the
// declared size from the DType instead.
func (e ElementType) Width() int {
	switch e {
	case Int8, Uint8, Bool, String:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func (e ElementType) String() string {
	switch e {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "invalid"
	}
}

func (o ByteOrder) String() string {
	switch o {
	case Little:
		return "little"
	case Big:
		return "big"
	case Native:
		return "native"
	default:
		return "unknown"
	}
}

// ElementWidth returns the byte width of one stored element, accounting for
// fixed-length strings ('S' stores Size bytes, 'U' stores 4 bytes per
// character).
func (d DType) ElementWidth() int {
	if d.Type != String {
		return d.Type.Width()
	}
	if d.Unicode {
		return 4 * d.Size
	}

	return d.Size
}

// Code renders the DType back into its dtype code, e.g. "<f8" or "|S16".
// Parse(d.Code()) yields d for every valid DType.
func (d DType) Code() string {
	var order byte
	switch d.Order {
	case Little:
		order = '<'
	case Big:
		order = '>'
	default:
		order = '|'
	}

	var kind byte
	width := d.Size
	switch d.Type {
	case Float32, Float64:
		kind = 'f'
	case Int8, Int16, Int32, Int64:
		kind = 'i'
	case Uint8, Uint16, Uint32, Uint64:
		kind = 'u'
	case Bool:
		kind = 'b'
	case String:
		kind = 'S'
		if d.Unicode {
			kind = 'U'
		}
	default:
		return ""
	}

	return string(order) + string(kind) + strconv.Itoa(width)
}

// Parse resolves a dtype code into a DType.
//
// The grammar is [byteOrderChar][typeChar][widthDigits]. The byte-order
// character is optional; a missing one resolves to Native, matching the
// '|' tag. Unknown type/width combinations return a FormatError.
//
// Parameters:
//   - code: dtype code string, e.g. "<f8", ">i4", "|b1", "<U10"
//
// Returns:
//   - DType: the resolved element type, byte order and width
//   - error: FormatError if the code is empty, truncated, or unknown
func Parse(code string) (DType, error) {
	if code == "" {
		return DType{}, errs.Formatf("empty dtype code")
	}

	order := Native
	rest := code
	switch code[0] {
	case '<':
		order = Little
		rest = code[1:]
	case '>':
		order = Big
		rest = code[1:]
	case '|', '=':
		rest = code[1:]
	}

	if len(rest) < 2 {
		return DType{}, errs.Formatf("truncated dtype code %q", code)
	}

	kind := rest[0]
	width, err := strconv.Atoi(rest[1:])
	if err != nil || width <= 0 {
		return DType{}, errs.Formatf("bad width in dtype code %q", code)
	}

	et, err := resolve(kind, width)
	if err != nil {
		return DType{}, err
	}

	d := DType{Type: et, Order: order, Size: width, Unicode: kind == 'U'}
	if et != String {
		d.Size = et.Width()
	}

	return d, nil
}

// resolve maps a (typeChar, width) pair to one ElementType. The mapping is
// total: every pair either resolves or fails, there is no default bucket.
func resolve(kind byte, width int) (ElementType, error) {
	switch kind {
	case 'f':
		switch width {
		case 4:
			return Float32, nil
		case 8:
			return Float64, nil
		}
	case 'i':
		switch width {
		case 1:
			return Int8, nil
		case 2:
			return Int16, nil
		case 4:
			return Int32, nil
		case 8:
			return Int64, nil
		}
	case 'u':
		switch width {
		case 1:
			return Uint8, nil
		case 2:
			return Uint16, nil
		case 4:
			return Uint32, nil
		case 8:
			return Uint64, nil
		}
	case 'b':
		if width == 1 {
			return Bool, nil
		}
	case 'S', 'U':
		return String, nil
	}

	return Invalid, errs.Formatf("unknown dtype code %c%d", kind, width)
}
