package device

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// ErrReadTimeout is returned by Receive when no terminated response arrives
// within the timeout.
var ErrReadTimeout = errors.New("read timeout")

// SerialTransport implements Transport using go.bug.st/serial. Responses are
// framed by a single terminator byte: '\n' for line instruments, '\r' for the
// Pfeiffer telegram bus and the syringe pump.
type SerialTransport struct {
	dev    string
	baud   int
	term   byte
	port   serial.Port
	frames chan frame
	done   chan struct{}
}

type frame struct {
	data []byte
	err  error
}

// NewSerialTransport creates a transport for the given path, baudrate and
// response terminator. The port is opened by Open.
func NewSerialTransport(dev string, baud int, term byte) *SerialTransport {
	return &SerialTransport{dev: dev, baud: baud, term: term}
}

// SerialDial returns a DialFunc that opens dev at baud when the handle
// connects.
func SerialDial(dev string, baud int, term byte) DialFunc {
	return func() (Transport, error) {
		t := NewSerialTransport(dev, baud, term)
		if err := t.Open(); err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Open opens the serial port and starts its reader. Opening an already-open
// transport is a no-op.
func (s *SerialTransport) Open() error {
	if s.port != nil {
		return nil
	}
	p, err := serial.Open(s.dev, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("open serial %s: %w", s.dev, err)
	}
	s.port = p
	s.frames = make(chan frame)
	s.done = make(chan struct{})
	go readFrames(bufio.NewReader(p), s.term, s.frames, s.done)
	return nil
}

// readFrames is the single reader for the port. One persistent reader means
// a Receive timeout never leaves a competing read behind; the frame it was
// waiting for is handed to the next Receive instead.
func readFrames(r *bufio.Reader, term byte, frames chan<- frame, done <-chan struct{}) {
	for {
		data, err := r.ReadBytes(term)
		select {
		case frames <- frame{data, err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Send writes one request to the port.
func (s *SerialTransport) Send(p []byte) error {
	if s.port == nil {
		return errors.New("serial port not open")
	}
	_, err := s.port.Write(p)
	return err
}

// Receive returns the next frame read from the port, up to and including the
// terminator. If timeout > 0 it returns ErrReadTimeout once the deadline
// passes.
func (s *SerialTransport) Receive(timeout time.Duration) ([]byte, error) {
	if s.port == nil {
		return nil, errors.New("serial port not open")
	}

	if timeout <= 0 {
		f := <-s.frames
		return f.data, f.err
	}

	select {
	case f := <-s.frames:
		return f.data, f.err
	case <-time.After(timeout):
		return nil, ErrReadTimeout
	}
}

// Close stops the reader and closes the underlying serial port.
func (s *SerialTransport) Close() error {
	if s.port == nil {
		return nil
	}
	close(s.done)
	err := s.port.Close()
	s.port = nil
	return err
}
