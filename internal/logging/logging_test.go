package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"silent", LogLevelSilent},
		{"error", LogLevelError},
		{"warning", LogLevelWarning},
		{"info", LogLevelInfo},
		{"debug", LogLevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevelUnknown(t *testing.T) {
	got, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, LogLevelInfo, got)
}

func TestEnabled(t *testing.T) {
	t.Cleanup(func() { Initialize(LogLevelInfo) })

	Initialize(LogLevelWarning)
	assert.True(t, Enabled(LogLevelError))
	assert.True(t, Enabled(LogLevelWarning))
	assert.False(t, Enabled(LogLevelInfo))
	assert.False(t, Enabled(LogLevelDebug))

	Initialize(LogLevelSilent)
	assert.False(t, Enabled(LogLevelError))
}

func TestStartProgressDisabled(t *testing.T) {
	t.Cleanup(func() { Initialize(LogLevelInfo) })

	Initialize(LogLevelError)
	p := StartProgress("Dumping", 10)
	assert.Nil(t, p)

	// A nil progress must be usable.
	p.Update(5, 10)
	p.Stop()

	Initialize(LogLevelInfo)
	assert.Nil(t, StartProgress("Dumping", 0))
}

func TestMessagesFollowLevel(t *testing.T) {
	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() {
		out = os.Stdout
		Initialize(LogLevelInfo)
	})

	Initialize(LogLevelWarning)
	Error("Error", errors.New("disk on fire"))
	Warn("Warning", "module skipped")
	Info("PDB", "12 modules")
	Success("Done", "written")

	got := buf.String()
	assert.Contains(t, got, "Error")
	assert.Contains(t, got, "disk on fire")
	assert.Contains(t, got, "module skipped")
	assert.NotContains(t, got, "12 modules")
	assert.NotContains(t, got, "written")

	buf.Reset()
	Initialize(LogLevelInfo)
	Info("PDB", "12 modules")
	Success("Done", "written")
	assert.Contains(t, buf.String(), "12 modules")
	assert.Contains(t, buf.String(), "written")
}
