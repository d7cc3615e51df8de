package streams_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/internal/pdbtest"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

func TestReadDBIStream(t *testing.T) {
	data := pdbtest.DBI{
		Machine:         streams.MachineAMD64,
		SymRecordStream: 7,
		Modules: []pdbtest.Module{
			{Name: `C:\src\widget.obj`, ObjName: `C:\src\widget.obj`, SymStream: 8, SymByteSize: 64, C13ByteSize: 32},
			{Name: "* Linker *", SymStream: streams.NilStreamIndex},
		},
		SectionHeaderStream: 6,
	}.Bytes()

	dbi, err := streams.ReadDBIStream(data)
	require.NoError(t, err)

	assert.Equal(t, uint16(streams.MachineAMD64), dbi.Header.Machine)
	assert.Equal(t, uint16(7), dbi.Header.SymRecordStream)
	require.Len(t, dbi.Modules, 2)

	mod := dbi.Modules[0]
	assert.Equal(t, `C:\src\widget.obj`, mod.ModuleName)
	assert.Equal(t, `C:\src\widget.obj`, mod.ObjFileName)
	assert.Equal(t, uint16(8), mod.ModuleSymStream)
	assert.Equal(t, uint32(64), mod.SymByteSize)
	assert.Equal(t, uint32(32), mod.C13ByteSize)
	assert.True(t, mod.HasSymbols())

	assert.Equal(t, "* Linker *", dbi.Modules[1].ModuleName)
	assert.False(t, dbi.Modules[1].HasSymbols())

	assert.Equal(t, uint16(6), dbi.DbgStream(streams.DbgHeaderSectionHdr))
	assert.Equal(t, uint16(streams.NilStreamIndex), dbi.DbgStream(streams.DbgHeaderFPO))
	assert.Equal(t, uint16(streams.NilStreamIndex), dbi.DbgStream(99))
}

func TestReadDBIStreamWithoutOptionalStreams(t *testing.T) {
	dbi, err := streams.ReadDBIStream(pdbtest.DBI{}.Bytes())
	require.NoError(t, err)

	assert.Empty(t, dbi.Modules)
	assert.Equal(t, uint16(streams.NilStreamIndex), dbi.Header.SymRecordStream)
	assert.Equal(t, uint16(streams.NilStreamIndex), dbi.DbgStream(streams.DbgHeaderSectionHdr))
}

func TestReadDBIStreamErrors(t *testing.T) {
	_, err := streams.ReadDBIStream(make([]byte, 10))
	assert.ErrorContains(t, err, "too small")

	data := pdbtest.DBI{}.Bytes()
	data[0] = 0
	_, err = streams.ReadDBIStream(data)
	assert.ErrorContains(t, err, "version signature")

	data = pdbtest.DBI{Modules: []pdbtest.Module{{Name: "a.obj"}}}.Bytes()
	_, err = streams.ReadDBIStream(data[:len(data)-4])
	assert.ErrorContains(t, err, "out of bounds")
}

func TestMachineTypeName(t *testing.T) {
	assert.Equal(t, "x64", streams.MachineTypeName(streams.MachineAMD64))
	assert.Equal(t, "x86", streams.MachineTypeName(streams.MachineI386))
	assert.Equal(t, "ARM64", streams.MachineTypeName(streams.MachineARM64))
	assert.Equal(t, "0x1234", streams.MachineTypeName(0x1234))
}

func TestReadSectionHeaders(t *testing.T) {
	data := pdbtest.SectionHeaders(
		pdbtest.Section{Name: ".text", VirtualAddress: 0x1000, VirtualSize: 0x200},
		pdbtest.Section{Name: ".rdata", VirtualAddress: 0x3000, VirtualSize: 0x80},
	)

	got, err := streams.ReadSectionHeaders(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ".text", got[0].Name)
	assert.Equal(t, uint32(0x1000), got[0].VirtualAddress)
	assert.Equal(t, uint32(0x200), got[0].VirtualSize)
	assert.Equal(t, ".rdata", got[1].Name)
	assert.Equal(t, uint32(0x60000020), got[1].Characteristics)

	_, err = streams.ReadSectionHeaders(data[:50])
	assert.Error(t, err)
}
