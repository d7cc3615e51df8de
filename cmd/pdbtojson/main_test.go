package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/internal/logging"
	"github.com/jtang613/pdbtojson/internal/pdbtest"
	"github.com/jtang613/pdbtojson/pkg/dump"
	"github.com/jtang613/pdbtojson/pkg/pdb"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() { logging.Initialize(logging.LogLevelInfo) })

	if args == nil {
		args = []string{} // keep cobra away from os.Args
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdb")
	require.NoError(t, os.WriteFile(path, pdbtest.Sample(), 0o644))
	return path
}

func TestRequiresPDBPath(t *testing.T) {
	assert.Error(t, execute(t))
	assert.Error(t, execute(t, "a.pdb", "prefix", "extra"))
}

func TestDumpToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")

	err := execute(t, writeSample(t), `C:\src\widget`, "-o", out, "--log-level", "silent", "--no-progress")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc dump.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Classes, 2)
	assert.Equal(t, "Widget", doc.Classes[1].Name)
	assert.Empty(t, doc.Enums)
	assert.Empty(t, doc.GlobalFunctions)
	assert.Len(t, doc.GlobalVariables, 3)
	assert.Len(t, doc.Typedefs, 2)
}

func TestDumpWithExcludes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")

	err := execute(t, writeSample(t), "-o", out, "--exclude", "main.cpp", "--exclude", "*.h", "--log-level", "silent")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc dump.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Classes, 1)
	assert.Equal(t, "Base", doc.Classes[0].Name)
	assert.Empty(t, doc.Enums)
	assert.Empty(t, doc.GlobalFunctions)
}

func TestMissingPDB(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")

	err := execute(t, filepath.Join(t.TempDir(), "missing.pdb"), "-o", out, "--log-level", "silent")
	assert.ErrorIs(t, err, pdb.ErrLoad)
	assert.NoFileExists(t, out)
}

func TestInvalidLogLevel(t *testing.T) {
	err := execute(t, writeSample(t), "--log-level", "loud")
	assert.ErrorContains(t, err, "unknown log level")
}
