package msf_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/internal/pdbtest"
	"github.com/jtang613/pdbtojson/pkg/pdb/msf"
)

func sample() []byte {
	return bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 500)
}

func TestNewReader(t *testing.T) {
	big := sample()
	data := pdbtest.BuildMSF(512, [][]byte{{}, []byte("hello"), big, nil})

	m, err := msf.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, uint32(512), m.BlockSize())
	assert.Equal(t, 4, m.NumStreams())
	assert.Equal(t, int64(len(data)), m.SuperBlock().FileSize())

	got, err := m.ReadStream(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = m.ReadStream(2)
	require.NoError(t, err)
	assert.Equal(t, big, got)

	s, err := m.Stream(2)
	require.NoError(t, err)
	assert.Len(t, s.Blocks(), 3)
	assert.Equal(t, uint32(len(big)), s.Size())
}

func TestReadStreamEmptyAndUnused(t *testing.T) {
	data := pdbtest.BuildMSF(512, [][]byte{{}, nil})
	m, err := msf.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	for i := range 2 {
		got, err := m.ReadStream(i)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	_, err = m.ReadStream(2)
	assert.Error(t, err)
}

func TestStreamReaderAcrossBlocks(t *testing.T) {
	big := sample()
	data := pdbtest.BuildMSF(512, [][]byte{{}, big})
	m, err := msf.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	r, err := m.StreamReader(1)
	require.NoError(t, err)

	pos, err := r.Seek(510, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(510), pos)

	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, big[510:514], buf)

	pos, err = r.Seek(10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(len(big)), pos)

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReaderRejectsBadMagic(t *testing.T) {
	data := pdbtest.BuildMSF(512, [][]byte{{}})
	data[0] = 'X'

	_, err := msf.NewReader(bytes.NewReader(data))
	assert.ErrorIs(t, err, msf.ErrBadMagic)
}

func TestNewReaderRejectsBlockSize(t *testing.T) {
	data := pdbtest.BuildMSF(256, [][]byte{{}})

	_, err := msf.NewReader(bytes.NewReader(data))
	assert.ErrorContains(t, err, "invalid block size")
}

func TestNewReaderTruncated(t *testing.T) {
	_, err := msf.NewReader(bytes.NewReader(msf.Magic))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pdb")
	require.NoError(t, os.WriteFile(path, pdbtest.BuildMSF(1024, [][]byte{{}, []byte("x")}), 0o644))

	m, err := msf.Open(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), m.BlockSize())
	assert.NoError(t, m.Close())

	_, err = msf.Open(filepath.Join(t.TempDir(), "missing.pdb"))
	assert.Error(t, err)
}
