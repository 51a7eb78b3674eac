// Package npy implements the NPY header and value codec: parsing the
// textual header dictionary that precedes an array's payload, and decoding
// raw payload bytes into typed scalar values under the header's declared
// element type and byte order.
//
// The byte-level format is:
//
//	[6-byte magic "\x93NUMPY"][major][minor]
//	[header length: 2 bytes (v1) or 4 bytes (v2+), little-endian]
//	[header dict text][payload bytes]
//
// The header-length field is always little-endian regardless of the
// payload's declared byte order. That is a quirk of the format, not of
// this implementation.
package npy

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/minghsu/npview/dtype"
	"github.com/minghsu/npview/errs"
)

// Magic is the 6-byte marker at the start of every NPY buffer. The first
// byte is outside the 7-bit range, so the marker must be compared byte-wise
// and never routed through a Unicode-aware decode.
var Magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

const (
	// headerStartV1 is the offset of the header dict for version 1
	// (6 magic + 2 version + 2 length).
	headerStartV1 = 10
	// headerStartV2 is the offset of the header dict for version 2 and up
	// (6 magic + 2 version + 4 length).
	headerStartV2 = 12
)

// Header is the parsed form of an NPY header: the resolved element type and
// byte order, the logical shape, and the byte offset where the payload
// begins.
type Header struct {
	DType        dtype.DType
	Shape        []int
	FortranOrder bool
	Major        uint8
	Minor        uint8
	HeaderLen    int
	// DataOffset is where the payload starts: 10+HeaderLen for v1,
	// 12+HeaderLen for v2+. Decoding must never start anywhere else.
	DataOffset int
}

// ElementCount returns the logical number of elements, the product of the
// shape. An empty shape means a scalar and counts as 1.
func (h *Header) ElementCount() int {
	n := 1
	for _, dim := range h.Shape {
		n *= dim
	}

	return n
}

var (
	descrPattern   = regexp.MustCompile(`['"]descr['"]\s*:\s*['"]([^'"]*)['"]`)
	fortranPattern = regexp.MustCompile(`['"]fortran_order['"]\s*:\s*(True|False)`)
	shapePattern   = regexp.MustCompile(`['"]shape['"]\s*:\s*\(([^)]*)\)`)
)

// ParseHeader parses an NPY header from the start of buf.
//
// Failure modes are all FormatError: missing or corrupt magic, unsupported
// major version (0 or >3), a buffer too short to hold the declared header,
// a dict missing descr, or an unparsable shape tuple. A missing
// fortran_order defaults to false; descr and shape never default.
//
// Parameters:
//   - buf: raw bytes beginning at file offset 0
//
// Returns:
//   - Header: parsed header with DataOffset positioned at the payload
//   - error: FormatError on malformed input, BufferUnderrunError if buf
//     cannot hold the declared header dict
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < headerStartV1 {
		return Header{}, errs.Formatf("buffer too short for npy header: %d bytes", len(buf))
	}

	if !bytes.Equal(buf[:len(Magic)], Magic) {
		return Header{}, errs.Formatf("magic mismatch: got % x, want % x", buf[:len(Magic)], Magic)
	}

	h := Header{Major: buf[6], Minor: buf[7]}
	if h.Major == 0 || h.Major > 3 {
		return Header{}, errs.Formatf("unsupported npy version %d.%d", h.Major, h.Minor)
	}

	// The length field is little-endian no matter what byte order the
	// payload declares.
	var start int
	if h.Major == 1 {
		start = headerStartV1
		h.HeaderLen = int(buf[8]) | int(buf[9])<<8
	} else {
		if len(buf) < headerStartV2 {
			return Header{}, errs.Formatf("buffer too short for npy v%d header: %d bytes", h.Major, len(buf))
		}
		start = headerStartV2
		h.HeaderLen = int(buf[8]) | int(buf[9])<<8 | int(buf[10])<<16 | int(buf[11])<<24
	}

	h.DataOffset = start + h.HeaderLen
	if len(buf) < h.DataOffset {
		return Header{}, &errs.BufferUnderrunError{Requested: h.DataOffset, Available: len(buf)}
	}

	if err := h.parseDict(string(buf[start:h.DataOffset])); err != nil {
		return Header{}, err
	}

	return h, nil
}

// parseDict extracts descr, fortran_order and shape from the header dict
// text. The dict is a Python literal; extraction tolerates whitespace
// variation and trailing commas but fails cleanly on missing descr or an
// unparsable shape.
func (h *Header) parseDict(dict string) error {
	m := descrPattern.FindStringSubmatch(dict)
	if m == nil {
		return errs.Formatf("header dict missing 'descr'")
	}

	d, err := dtype.Parse(m[1])
	if err != nil {
		return err
	}
	h.DType = d

	if m = fortranPattern.FindStringSubmatch(dict); m != nil {
		h.FortranOrder = m[1] == "True"
	}

	m = shapePattern.FindStringSubmatch(dict)
	if m == nil {
		return errs.Formatf("header dict missing 'shape'")
	}

	shape, err := parseShape(m[1])
	if err != nil {
		return err
	}
	h.Shape = shape

	return nil
}

// parseShape parses the inside of a shape tuple, e.g. "4," or "3, 4".
// Empty input means a scalar (empty shape). Trailing commas are the normal
// Python rendering of one-element tuples, so empty fields are skipped.
func parseShape(s string) ([]int, error) {
	shape := make([]int, 0, 4)
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		dim, err := strconv.Atoi(field)
		if err != nil || dim < 0 {
			return nil, errs.Formatf("bad shape dimension %q", field)
		}
		shape = append(shape, dim)
	}

	return shape, nil
}

// Bytes serializes the header back into wire form: magic, version, length
// field, and the dict text padded with spaces to a 64-byte aligned total
// and terminated with a newline.
//
// The encoder picks version 1 when the dict fits a 16-bit length field and
// version 2 otherwise. Parsing the result yields an identical
// (DType, FortranOrder, Shape).
func (h *Header) Bytes() []byte {
	order := "False"
	if h.FortranOrder {
		order = "True"
	}

	dims := make([]string, len(h.Shape))
	for i, d := range h.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(h.Shape) == 1 {
		shape += ","
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }",
		h.DType.Code(), order, shape)

	start := headerStartV1
	major := byte(1)
	if len(dict)+1 > 0xFFFF-headerStartV1 {
		start = headerStartV2
		major = 2
	}

	// Pad so the payload starts on a 64-byte boundary, newline last.
	total := (start + len(dict) + 1 + 63) / 64 * 64
	hlen := total - start

	buf := make([]byte, total)
	copy(buf, Magic)
	buf[6] = major
	buf[7] = 0
	buf[8] = byte(hlen)
	buf[9] = byte(hlen >> 8)
	if major >= 2 {
		buf[10] = byte(hlen >> 16)
		buf[11] = byte(hlen >> 24)
	}

	copy(buf[start:], dict)
	for i := start + len(dict); i < total-1; i++ {
		buf[i] = ' '
	}
	buf[total-1] = '\n'

	return buf
}
