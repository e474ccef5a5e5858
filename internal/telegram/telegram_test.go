package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildQueryFrame(t *testing.T) {
	frame := BuildQuery(1, 740)
	require.Equal(t, "0010074002=?106\r", string(frame))
}

func TestBuildControlFrame(t *testing.T) {
	frame := BuildControl(1, 10, "111111")
	require.Equal(t, "0011001006111111015\r", string(frame))
}

func TestParseRoundTrip(t *testing.T) {
	frame := BuildControl(12, 309, "001500")
	resp, err := Parse(frame)
	require.NoError(t, err)
	require.Equal(t, 12, resp.Addr)
	require.Equal(t, 1, resp.RW)
	require.Equal(t, 309, resp.Param)
	require.Equal(t, "001500", resp.Data)
}

func TestParseRejectsShortFrame(t *testing.T) {
	_, err := Parse([]byte("00110\r"))
	require.Error(t, err)
}

func TestParseRejectsMissingTerminator(t *testing.T) {
	frame := BuildControl(1, 740, "520017")
	_, err := Parse(frame[:len(frame)-1])
	require.Error(t, err)
	require.Contains(t, err.Error(), "terminated")
}

func TestParseRejectsBadChecksum(t *testing.T) {
	frame := BuildControl(1, 740, "520017")
	frame[len(frame)-2]++ // corrupt the checksum field
	_, err := Parse(frame)
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum")
}

func TestParseDeviceErrors(t *testing.T) {
	for payload, want := range map[string]error{
		"NO_DEF": ErrNoDef,
		"_RANGE": ErrRange,
		"_LOGIC": ErrLogic,
	} {
		_, err := Parse(BuildControl(1, 740, payload))
		require.ErrorIs(t, err, want)
	}
}

func TestChecksum(t *testing.T) {
	require.Equal(t, 106, Checksum([]byte("0010074002=?")))
}
