// Package pdbtest builds PDB files in memory for tests.
package pdbtest

import (
	"encoding/binary"
	"math"
)

// Writer appends little-endian fields to a byte slice.
type Writer struct {
	buf []byte
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// Str appends s and a terminating zero.
func (w *Writer) Str(s string) *Writer {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return w
}

func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Align pads with zeros to a multiple of n.
func (w *Writer) Align(n int) *Writer {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
	return w
}

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Bytes() []byte { return w.buf }

// Numeric encodes v in the smallest unsigned numeric leaf.
func Numeric(v uint64) []byte {
	w := &Writer{}
	switch {
	case v < 0x8000:
		w.U16(uint16(v))
	case v <= math.MaxUint16:
		w.U16(0x8002).U16(uint16(v))
	case v <= math.MaxUint32:
		w.U16(0x8004).U32(uint32(v))
	default:
		w.U16(0x800a).U64(v)
	}
	return w.Bytes()
}

// Char encodes an LF_CHAR numeric leaf.
func Char(v int8) []byte {
	return (&Writer{}).U16(0x8000).U8(uint8(v)).Bytes()
}

// Long encodes an LF_LONG numeric leaf.
func Long(v int32) []byte {
	return (&Writer{}).U16(0x8003).U32(uint32(v)).Bytes()
}

// Quad encodes an LF_QUAD numeric leaf.
func Quad(v int64) []byte {
	return (&Writer{}).U16(0x8009).U64(uint64(v)).Bytes()
}

// Real32 encodes an LF_REAL32 numeric leaf.
func Real32(v float32) []byte {
	return (&Writer{}).U16(0x8005).U32(math.Float32bits(v)).Bytes()
}
