// Package endian provides byte order utilities for binary decoding.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder interfaces into a unified EndianEngine
// interface, and by resolving the byte-order tags an array header declares
// into a concrete engine.
//
// # Basic Usage
//
// Headers declare their byte order with a dtype tag; resolve it once and
// pass the engine to every decode of that array:
//
//	engine := endian.EngineFor(header.Order)
//	v := engine.Uint32(payload[off:])
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"

	"github.com/minghsu/npview/dtype"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian
// from the standard library, making it fully compatible with existing Go
// code.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	// For a big-endian system, the MSB (0x01) is first.
	var i uint16 = 0x0100

	// Create a byte slice pointing to the memory address of 'i'.
	// We only need the first byte.
	b := (*[2]byte)(unsafe.Pointer(&i))

	// Check the first byte at the lowest memory address
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// EngineFor resolves a declared byte order to a concrete engine.
//
// dtype.Native (the '|' tag, or a missing tag) resolves to the host's own
// byte order, so single-byte types decode identically everywhere and
// multi-byte native arrays decode correctly on the machine that wrote them.
func EngineFor(order dtype.ByteOrder) EndianEngine {
	switch order {
	case dtype.Big:
		return binary.BigEndian
	case dtype.Little:
		return binary.LittleEndian
	default:
		if IsNativeBigEndian() {
			return binary.BigEndian
		}

		return binary.LittleEndian
	}
}
