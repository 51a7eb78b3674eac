package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/minghsu/npview/dtype"
)

func TestCheckEndianness(t *testing.T) {
	// Probe the host directly and compare against the package's answer.
	var v uint16 = 0x0102
	first := (*[2]byte)(unsafe.Pointer(&v))[0]

	switch first {
	case 0x01:
		require.Equal(t, binary.BigEndian, CheckEndianness())
	case 0x02:
		require.Equal(t, binary.LittleEndian, CheckEndianness())
	default:
		t.Fatalf("unexpected probe byte %#x", first)
	}

	// The host's byte order does not change between calls.
	got := CheckEndianness()
	for i := 0; i < 10; i++ {
		require.Equal(t, got, CheckEndianness())
	}
}

func TestIsNativeBigEndian(t *testing.T) {
	require.Equal(t, CheckEndianness() == binary.BigEndian, IsNativeBigEndian())
}

func TestGetEngines(t *testing.T) {
	little := GetLittleEndianEngine()
	big := GetBigEndianEngine()

	require.Implements(t, (*EndianEngine)(nil), little)
	require.Implements(t, (*EndianEngine)(nil), big)
	require.Equal(t, binary.LittleEndian, little)
	require.Equal(t, binary.BigEndian, big)

	// LSB-first vs MSB-first on the same value.
	buf := make([]byte, 2)
	little.PutUint16(buf, 0x0102)
	require.Equal(t, []byte{0x02, 0x01}, buf)
	big.PutUint16(buf, 0x0102)
	require.Equal(t, []byte{0x01, 0x02}, buf)

	// Both round-trip wider values through their own order.
	var v uint64 = 0x0102030405060708
	lb := little.AppendUint64(nil, v)
	bb := big.AppendUint64(nil, v)
	require.NotEqual(t, lb, bb)
	require.Equal(t, v, little.Uint64(lb))
	require.Equal(t, v, big.Uint64(bb))
}

func TestEngineFor(t *testing.T) {
	require.Equal(t, binary.LittleEndian, EngineFor(dtype.Little))
	require.Equal(t, binary.BigEndian, EngineFor(dtype.Big))

	// Native resolves to whatever the host uses.
	native := EngineFor(dtype.Native)
	if IsNativeBigEndian() {
		require.Equal(t, binary.BigEndian, native)
	} else {
		require.Equal(t, binary.LittleEndian, native)
	}
}

func TestEngineForHonorsByteOrder(t *testing.T) {
	// The same four bytes read as big-endian and little-endian must differ.
	data := []byte{0x00, 0x00, 0x00, 0x01}

	require.Equal(t, uint32(1), EngineFor(dtype.Big).Uint32(data))
	require.Equal(t, uint32(16777216), EngineFor(dtype.Little).Uint32(data))
}
