package hklog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"LabBench/internal/device"
)

func TestFileSinkLineFormat(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "chiller_01")
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })

	when := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	err = sink.Emit(device.Record{
		DeviceID: "chiller_01",
		Port:     "/dev/ttyUSB0",
		Time:     when,
		Readings: []device.Reading{
			{Name: "Bath_Temp", Value: "21.53", Unit: "degC"},
			{Name: "State", Value: "COOLING"},
		},
	})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "chiller_01_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "2026-08-29T10:00:00Z  chiller_01  /dev/ttyUSB0  Bath_Temp  21.53//degC", lines[0])
	require.Equal(t, "2026-08-29T10:00:00Z  chiller_01  /dev/ttyUSB0  State  COOLING//", lines[1])
}

func TestFileSinkCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	sink, err := NewFileSink(dir, "pump_01")
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

type stubSink struct {
	n   int
	err error
}

func (s *stubSink) Emit(device.Record) error {
	s.n++
	return s.err
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &stubSink{}
	b := &stubSink{err: errors.New("broken pipe")}
	c := &stubSink{}

	err := MultiSink{a, b, c}.Emit(device.Record{DeviceID: "x"})
	require.ErrorIs(t, err, b.err)
	require.Equal(t, 1, a.n)
	require.Equal(t, 1, b.n)
	require.Equal(t, 1, c.n, "later sinks must still be attempted")
}
