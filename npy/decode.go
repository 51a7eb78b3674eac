package npy

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/minghsu/npview/dtype"
	"github.com/minghsu/npview/endian"
	"github.com/minghsu/npview/errs"
	"github.com/minghsu/npview/sample"
)

// DecodeResult carries the outcome of a batched value decode.
//
// Values holds the decoded prefix. Sampled distinguishes a stride-sampled
// preview from a full decode so consumers never conflate the two. Truncated
// is non-nil when decoding stopped early on a bad element; the successfully
// decoded prefix is kept. This "stop on first bad element, keep partial
// results" policy is deliberate for preview contexts: a mostly-good array
// still previews.
type DecodeResult struct {
	Values    []any
	Sampled   bool
	Truncated error
}

// DecodeValue decodes one element of type d at off using the given engine.
//
// Numeric values are returned as float64. 64-bit integers are decoded wide
// and then narrowed, which loses precision outside ±2^53; that is an
// accepted lossy step for preview purposes only. Booleans decode as
// "stored byte is nonzero". Fixed-length strings decode per the declared
// size.
//
// Returns:
//   - any: the decoded value (float64, bool, or string)
//   - int: bytes consumed
//   - error: BufferUnderrunError if the element's width runs past buf,
//     FormatError for an invalid element type
func DecodeValue(buf []byte, off int, d dtype.DType, engine endian.EndianEngine) (any, int, error) {
	width := d.ElementWidth()
	if width <= 0 {
		return nil, 0, errs.Formatf("cannot decode element type %s", d.Type)
	}
	if off < 0 || off+width > len(buf) {
		return nil, 0, &errs.BufferUnderrunError{Requested: off + width, Available: len(buf)}
	}

	switch d.Type {
	case dtype.Int8:
		return float64(int8(buf[off])), width, nil
	case dtype.Int16:
		return float64(int16(engine.Uint16(buf[off:]))), width, nil
	case dtype.Int32:
		return float64(int32(engine.Uint32(buf[off:]))), width, nil
	case dtype.Int64:
		return float64(int64(engine.Uint64(buf[off:]))), width, nil
	case dtype.Uint8:
		return float64(buf[off]), width, nil
	case dtype.Uint16:
		return float64(engine.Uint16(buf[off:])), width, nil
	case dtype.Uint32:
		return float64(engine.Uint32(buf[off:])), width, nil
	case dtype.Uint64:
		return float64(engine.Uint64(buf[off:])), width, nil
	case dtype.Float32:
		return float64(math.Float32frombits(engine.Uint32(buf[off:]))), width, nil
	case dtype.Float64:
		return math.Float64frombits(engine.Uint64(buf[off:])), width, nil
	case dtype.Bool:
		return buf[off] != 0, width, nil
	case dtype.String:
		if d.Unicode {
			return decodeUCS4(buf[off:off+width], engine), width, nil
		}
		s, err := DecodeFixedString(buf, off, width)
		if err != nil {
			return nil, 0, err
		}

		return s, width, nil
	default:
		return nil, 0, errs.Formatf("cannot decode element type %s", d.Type)
	}
}

// DecodeCString scans forward from off until a zero byte or the end of the
// buffer and decodes the span as UTF-8.
//
// The returned offset is one past the terminator, or len(buf) when no
// terminator was found. Hitting the end of the buffer is not an error; the
// partial string is returned by contract.
func DecodeCString(buf []byte, off int) (string, int) {
	if off < 0 || off >= len(buf) {
		return "", len(buf)
	}

	end := off
	for end < len(buf) && buf[end] != 0 {
		end++
	}

	s := toUTF8(buf[off:end])
	if end < len(buf) {
		end++ // step past the terminator
	}

	return s, end
}

// DecodeFixedString decodes exactly n bytes at off as UTF-8, stripping from
// the first embedded zero byte onward.
func DecodeFixedString(buf []byte, off, n int) (string, error) {
	if off < 0 || off+n > len(buf) {
		return "", &errs.BufferUnderrunError{Requested: off + n, Available: len(buf)}
	}

	b := buf[off : off+n]
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}

	return toUTF8(b), nil
}

// decodeUCS4 decodes a fixed-length 'U' element: one 4-byte code point per
// declared character, zero-padded.
func decodeUCS4(b []byte, engine endian.EndianEngine) string {
	var sb strings.Builder
	for off := 0; off+4 <= len(b); off += 4 {
		r := rune(engine.Uint32(b[off:]))
		if r == 0 {
			break
		}
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

func toUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	// Replace invalid sequences instead of dropping the element.
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// DecodeValues decodes count consecutive elements of type d starting at
// off.
//
// Bounds are checked up front against the full batch, so the call either
// has room for every element or fails with BufferUnderrunError before any
// element is produced. Inside the loop a failing element stops further
// decoding; the prefix decoded so far is returned with the failure recorded
// in DecodeResult.Truncated rather than surfaced as an error.
func DecodeValues(buf []byte, off, count int, d dtype.DType, engine endian.EndianEngine) (DecodeResult, error) {
	width := d.ElementWidth()
	if width <= 0 {
		return DecodeResult{}, errs.Formatf("cannot decode element type %s", d.Type)
	}
	if count < 0 {
		return DecodeResult{}, errs.Formatf("negative element count %d", count)
	}
	if off < 0 || off+count*width > len(buf) {
		return DecodeResult{}, &errs.BufferUnderrunError{Requested: off + count*width, Available: len(buf)}
	}

	res := DecodeResult{Values: make([]any, 0, count)}
	for i := 0; i < count; i++ {
		v, _, err := DecodeValue(buf, off+i*width, d, engine)
		if err != nil {
			res.Truncated = err
			break
		}
		res.Values = append(res.Values, v)
	}

	return res, nil
}

// Decode parses an in-memory NPY buffer and returns its header plus a
// bounded preview of at most maxElems values.
//
// Arrays no larger than maxElems decode in full. Larger arrays are reduced
// by uniform stride decimation over the element domain: every step-th
// element starting at index 0, step = ceil(n/maxElems), so the preview is
// deterministic and order-preserving. The result's Sampled flag records
// which path was taken.
func Decode(buf []byte, maxElems int) (Header, DecodeResult, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return Header{}, DecodeResult{}, err
	}

	engine := endian.EngineFor(h.DType.Order)
	n := h.ElementCount()
	width := h.DType.ElementWidth()

	if maxElems <= 0 || n <= maxElems {
		res, err := DecodeValues(buf, h.DataOffset, n, h.DType, engine)
		if err != nil {
			return Header{}, DecodeResult{}, err
		}

		return h, res, nil
	}

	// Check the whole payload before sampling from it, so a truncated file
	// fails here instead of mid-stride.
	if h.DataOffset+n*width > len(buf) {
		return Header{}, DecodeResult{}, &errs.BufferUnderrunError{
			Requested: h.DataOffset + n*width,
			Available: len(buf),
		}
	}

	step := sample.Stride(n, maxElems)
	res := DecodeResult{Values: make([]any, 0, (n+step-1)/step), Sampled: true}
	for i := 0; i < n; i += step {
		v, _, err := DecodeValue(buf, h.DataOffset+i*width, h.DType, engine)
		if err != nil {
			res.Truncated = err
			break
		}
		res.Values = append(res.Values, v)
	}

	return h, res, nil
}
