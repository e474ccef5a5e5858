package device

import (
	"bufio"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestSerialTransportExchange(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	tr := NewSerialTransport(slave.Name(), 9600, '\n')
	require.NoError(t, tr.Open())
	t.Cleanup(func() { tr.Close() })

	// Instrument side: answer one request on the master end.
	go func() {
		r := bufio.NewReader(master)
		if _, err := r.ReadBytes('\n'); err != nil {
			return
		}
		master.Write([]byte("21.53\n"))
	}()

	require.NoError(t, tr.Send([]byte("GET TEMP\n")))
	resp, err := tr.Receive(500 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "21.53\n", string(resp))
}

func TestSerialTransportReceiveTimeout(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	tr := NewSerialTransport(slave.Name(), 9600, '\n')
	require.NoError(t, tr.Open())
	t.Cleanup(func() { tr.Close() })

	_, err = tr.Receive(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)
}

func TestSerialTransportClosedOps(t *testing.T) {
	tr := NewSerialTransport("/dev/null-pty", 9600, '\n')
	require.Error(t, tr.Send([]byte("x")))
	_, err := tr.Receive(10 * time.Millisecond)
	require.Error(t, err)
	require.NoError(t, tr.Close())
}

func TestSerialDialAttachesOnConnect(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	h := New(Options{
		DeviceID: "chiller1",
		Port:     slave.Name(),
		Dial:     SerialDial(slave.Name(), 9600, '\n'),
	})
	require.NoError(t, h.Connect())
	t.Cleanup(func() { h.Disconnect() })

	go func() {
		r := bufio.NewReader(master)
		if _, err := r.ReadBytes('\n'); err != nil {
			return
		}
		master.Write([]byte("OK\n"))
	}()

	resp, err := h.Exchange([]byte("COOL ON\n"))
	require.NoError(t, err)
	require.Equal(t, "OK\n", string(resp))
}

func TestSerialTransportSingleReaderAfterTimeout(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	tr := NewSerialTransport(slave.Name(), 9600, '\n')
	require.NoError(t, tr.Open())
	t.Cleanup(func() { tr.Close() })

	_, err = tr.Receive(30 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)

	// The frame the timed-out call was waiting for is delivered to the next
	// Receive, exactly once; the one after it arrives clean as well.
	master.Write([]byte("5.2e-8\n"))
	resp, err := tr.Receive(500 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "5.2e-8\n", string(resp))

	master.Write([]byte("5.3e-8\n"))
	resp, err = tr.Receive(500 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "5.3e-8\n", string(resp))
}
