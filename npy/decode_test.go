package npy

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minghsu/npview/dtype"
	"github.com/minghsu/npview/endian"
	"github.com/minghsu/npview/errs"
)

func TestDecode_Float64Array(t *testing.T) {
	// v1 header, dtype <f8, shape (4,), little-endian payload 1..4.
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (4,), }"
	buf := buildNpy(t, dict, float64LE(1, 2, 3, 4))

	h, res, err := Decode(buf, 100)

	require.NoError(t, err)
	require.Equal(t, dtype.Float64, h.DType.Type)
	require.Equal(t, []int{4}, h.Shape)
	require.False(t, res.Sampled)
	require.NoError(t, res.Truncated)
	require.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, res.Values)
}

func TestDecode_CorruptMagicDecodesNothing(t *testing.T) {
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (4,)}"
	buf := buildNpy(t, dict, float64LE(1, 2, 3, 4))
	buf[0] = 'X'

	_, res, err := Decode(buf, 100)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrFormat)
	require.Empty(t, res.Values)
}

func TestDecodeValue_ByteOrderHonored(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x01}

	big := mustDType(t, ">i4")
	v, n, err := DecodeValue(data, 0, big, endian.EngineFor(big.Order))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, float64(1), v)

	little := mustDType(t, "<i4")
	v, _, err = DecodeValue(data, 0, little, endian.EngineFor(little.Order))
	require.NoError(t, err)
	require.Equal(t, float64(16777216), v)
}

func TestDecodeValue_Types(t *testing.T) {
	le := endian.GetLittleEndianEngine()

	t.Run("Signed narrowing", func(t *testing.T) {
		v, _, err := DecodeValue([]byte{0xFF}, 0, mustDType(t, "<i1"), le)
		require.NoError(t, err)
		require.Equal(t, float64(-1), v)

		buf := binary.LittleEndian.AppendUint64(nil, 0xFFFFFFFFFFFFFFFF)
		v, _, err = DecodeValue(buf, 0, mustDType(t, "<i8"), le)
		require.NoError(t, err)
		require.Equal(t, float64(-1), v)
	})

	t.Run("Unsigned", func(t *testing.T) {
		v, _, err := DecodeValue([]byte{0xFF, 0xFF}, 0, mustDType(t, "<u2"), le)
		require.NoError(t, err)
		require.Equal(t, float64(65535), v)
	})

	t.Run("Bool is nonzero byte", func(t *testing.T) {
		v, _, err := DecodeValue([]byte{0}, 0, mustDType(t, "|b1"), le)
		require.NoError(t, err)
		require.Equal(t, false, v)

		v, _, err = DecodeValue([]byte{7}, 0, mustDType(t, "|b1"), le)
		require.NoError(t, err)
		require.Equal(t, true, v)
	})

	t.Run("Float32 widens", func(t *testing.T) {
		buf := binary.LittleEndian.AppendUint32(nil, 0x40490FDB) // ~pi
		v, _, err := DecodeValue(buf, 0, mustDType(t, "<f4"), le)
		require.NoError(t, err)
		require.InDelta(t, 3.14159274, v.(float64), 1e-7)
	})

	t.Run("Fixed byte string strips at NUL", func(t *testing.T) {
		buf := []byte{'h', 'i', 0, 'x', 'y', 0, 0, 0}
		v, n, err := DecodeValue(buf, 0, mustDType(t, "|S8"), le)
		require.NoError(t, err)
		require.Equal(t, 8, n)
		require.Equal(t, "hi", v)
	})

	t.Run("Unicode UCS4", func(t *testing.T) {
		buf := make([]byte, 12)
		binary.LittleEndian.PutUint32(buf[0:], 'a')
		binary.LittleEndian.PutUint32(buf[4:], 0x4e2d)
		v, n, err := DecodeValue(buf, 0, mustDType(t, "<U3"), le)
		require.NoError(t, err)
		require.Equal(t, 12, n)
		require.Equal(t, "a中", v)
	})

	t.Run("Underrun", func(t *testing.T) {
		_, _, err := DecodeValue([]byte{1, 2}, 0, mustDType(t, "<i4"), le)
		require.ErrorIs(t, err, errs.ErrBufferUnderrun)
	})
}

func TestDecodeCString(t *testing.T) {
	t.Run("Terminated", func(t *testing.T) {
		buf := []byte{'a', 'b', 'c', 0, 'd'}
		s, off := DecodeCString(buf, 0)
		require.Equal(t, "abc", s)
		require.Equal(t, 4, off) // one past the terminator
	})

	t.Run("Unterminated returns partial, no error", func(t *testing.T) {
		buf := []byte{'a', 'b', 'c'}
		s, off := DecodeCString(buf, 0)
		require.Equal(t, "abc", s)
		require.Equal(t, 3, off) // paused at buffer end
	})

	t.Run("Empty string", func(t *testing.T) {
		s, off := DecodeCString([]byte{0, 'x'}, 0)
		require.Equal(t, "", s)
		require.Equal(t, 1, off)
	})

	t.Run("Offset past end", func(t *testing.T) {
		s, off := DecodeCString([]byte{'a'}, 5)
		require.Equal(t, "", s)
		require.Equal(t, 1, off)
	})
}

func TestDecodeFixedString(t *testing.T) {
	buf := []byte{'h', 'e', 'l', 'l', 'o', 0, 0, 0}

	s, err := DecodeFixedString(buf, 0, 8)
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	s, err = DecodeFixedString(buf, 0, 4)
	require.NoError(t, err)
	require.Equal(t, "hell", s)

	_, err = DecodeFixedString(buf, 4, 8)
	require.ErrorIs(t, err, errs.ErrBufferUnderrun)
}

func TestDecodeValues(t *testing.T) {
	le := endian.GetLittleEndianEngine()

	t.Run("Full batch", func(t *testing.T) {
		buf := float64LE(1, 2, 3)
		res, err := DecodeValues(buf, 0, 3, mustDType(t, "<f8"), le)
		require.NoError(t, err)
		require.NoError(t, res.Truncated)
		require.False(t, res.Sampled)
		require.Equal(t, []any{1.0, 2.0, 3.0}, res.Values)
	})

	t.Run("Underrun fails before any element", func(t *testing.T) {
		buf := float64LE(1, 2)
		res, err := DecodeValues(buf, 0, 4, mustDType(t, "<f8"), le)
		require.ErrorIs(t, err, errs.ErrBufferUnderrun)
		require.Empty(t, res.Values, "batched read must not partially populate on underrun")

		var underrun *errs.BufferUnderrunError
		require.ErrorAs(t, err, &underrun)
		require.Equal(t, 32, underrun.Requested)
		require.Equal(t, 16, underrun.Available)
	})
}

func TestDecode_Sampling(t *testing.T) {
	// 1000 little-endian float64s; preview bound 100.
	vals := make([]float64, 1000)
	for i := range vals {
		vals[i] = float64(i)
	}
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (1000,), }"
	buf := buildNpy(t, dict, float64LE(vals...))

	h, res, err := Decode(buf, 100)

	require.NoError(t, err)
	require.Equal(t, 1000, h.ElementCount())
	require.True(t, res.Sampled)
	require.Len(t, res.Values, 100)
	// Stride 10 from index 0: 0, 10, ..., 990.
	for i, v := range res.Values {
		require.Equal(t, float64(i*10), v)
	}
}

func TestDecode_TruncatedPayload(t *testing.T) {
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (100,)}"
	buf := buildNpy(t, dict, float64LE(1, 2, 3)) // payload far too short

	_, _, err := Decode(buf, 1000)
	require.ErrorIs(t, err, errs.ErrBufferUnderrun)

	// The sampled path checks the whole payload up front too.
	_, _, err = Decode(buf, 10)
	require.ErrorIs(t, err, errs.ErrBufferUnderrun)
}
