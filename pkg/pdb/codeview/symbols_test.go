package codeview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/internal/pdbtest"
	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

func TestParseSymbols(t *testing.T) {
	ss := &pdbtest.SymbolStream{}
	ss.AddProc(codeview.S_GPROC32, pdbtest.Proc(0x20, 0x1001, 0x10, 1, "Widget::Update"))
	dataOff := ss.Add(codeview.S_GDATA32, pdbtest.Data(streams.T_INT4, 0x40, 2, "g_count"))
	ss.Add(codeview.S_UDT, pdbtest.UDT(0x1002, "Handle"))
	ss.Add(codeview.S_PUB32, pdbtest.Pub(codeview.PubFlagFunction, 0x10, 1, "?Update@Widget@@QEAAXXZ"))

	records, err := codeview.ParseSymbols(ss.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 5)

	kinds := make([]uint16, len(records))
	for i, r := range records {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []uint16{
		codeview.S_GPROC32, codeview.S_END, codeview.S_GDATA32, codeview.S_UDT, codeview.S_PUB32,
	}, kinds)
	assert.Equal(t, uint32(0), records[0].Offset)
	assert.Equal(t, dataOff, records[2].Offset)

	proc, err := codeview.ParseProcSym(records[0].Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), proc.Length)
	assert.Equal(t, uint32(0x1001), proc.TypeIndex)
	assert.Equal(t, uint32(0x10), proc.Offset)
	assert.Equal(t, uint16(1), proc.Segment)
	assert.Equal(t, "Widget::Update", proc.Name)

	data, err := codeview.ParseDataSym(records[2].Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(streams.T_INT4), data.TypeIndex)
	assert.Equal(t, uint32(0x40), data.Offset)
	assert.Equal(t, uint16(2), data.Segment)
	assert.Equal(t, "g_count", data.Name)

	udt, err := codeview.ParseUDTSym(records[3].Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1002), udt.TypeIndex)
	assert.Equal(t, "Handle", udt.Name)

	pub, err := codeview.ParsePubSym(records[4].Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(codeview.PubFlagFunction), pub.Flags)
	assert.Equal(t, "?Update@Widget@@QEAAXXZ", pub.Name)
}

func TestParseSymbolsStopsAtBadLength(t *testing.T) {
	ss := &pdbtest.SymbolStream{}
	ss.Add(codeview.S_UDT, pdbtest.UDT(0x1002, "Handle"))
	data := append(ss.Bytes(), 0x01, 0x00, 0x00, 0x00)

	records, err := codeview.ParseSymbols(data)
	assert.ErrorContains(t, err, "invalid length")
	assert.Len(t, records, 1)
}

func TestParseSymbolTooSmall(t *testing.T) {
	short := make([]byte, 3)

	_, err := codeview.ParseProcSym(short)
	assert.Error(t, err)
	_, err = codeview.ParseDataSym(short)
	assert.Error(t, err)
	_, err = codeview.ParseUDTSym(short)
	assert.Error(t, err)
	_, err = codeview.ParsePubSym(short)
	assert.Error(t, err)
}

func TestSymbolKindPredicates(t *testing.T) {
	assert.True(t, codeview.IsProcSymbol(codeview.S_LPROC32))
	assert.True(t, codeview.IsProcSymbol(codeview.S_GPROC32_ID))
	assert.False(t, codeview.IsProcSymbol(codeview.S_GDATA32))

	assert.True(t, codeview.IsIDProcSymbol(codeview.S_LPROC32_ID))
	assert.False(t, codeview.IsIDProcSymbol(codeview.S_GPROC32))

	assert.True(t, codeview.IsDataSymbol(codeview.S_LTHREAD32))
	assert.False(t, codeview.IsDataSymbol(codeview.S_UDT))

	assert.True(t, codeview.IsGlobalSymbol(codeview.S_GPROC32))
	assert.False(t, codeview.IsGlobalSymbol(codeview.S_LPROC32))

	assert.True(t, codeview.OpensScope(codeview.S_BLOCK32))
	assert.True(t, codeview.ClosesScope(codeview.S_PROC_ID_END))
	assert.False(t, codeview.ClosesScope(codeview.S_BLOCK32))
}

func TestSymbolKindName(t *testing.T) {
	assert.Equal(t, "S_GPROC32", codeview.SymbolKindName(codeview.S_GPROC32))
	assert.Equal(t, "S_0x1234", codeview.SymbolKindName(0x1234))
}
