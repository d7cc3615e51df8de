package pdbtest

import (
	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
)

// SymbolStream accumulates CodeView symbol records, each padded to four
// bytes.
type SymbolStream struct {
	w Writer
}

// Add appends a record and returns its offset in the stream.
func (s *SymbolStream) Add(kind uint16, body []byte) uint32 {
	off := uint32(s.w.Len())
	padded := len(body) + (4-(len(body)+4)%4)%4
	s.w.U16(uint16(padded + 2)).U16(kind).Raw(body)
	for range padded - len(body) {
		s.w.U8(0)
	}
	return off
}

func (s *SymbolStream) Bytes() []byte { return s.w.Bytes() }

// Proc encodes an S_GPROC32-style body.
func Proc(length, t, offset uint32, segment uint16, name string) []byte {
	w := &Writer{}
	w.U32(0).U32(0).U32(0) // parent, end, next
	w.U32(length)
	w.U32(0).U32(length) // debug start and end
	w.U32(t).U32(offset).U16(segment).U8(0).Str(name)
	return w.Bytes()
}

func Data(t, offset uint32, segment uint16, name string) []byte {
	return (&Writer{}).U32(t).U32(offset).U16(segment).Str(name).Bytes()
}

func UDT(t uint32, name string) []byte {
	return (&Writer{}).U32(t).Str(name).Bytes()
}

func Pub(flags, offset uint32, segment uint16, name string) []byte {
	return (&Writer{}).U32(flags).U32(offset).U16(segment).Str(name).Bytes()
}

// AddProc appends a procedure and its closing S_END.
func (s *SymbolStream) AddProc(kind uint16, body []byte) {
	s.Add(kind, body)
	s.Add(codeview.S_END, nil)
}
