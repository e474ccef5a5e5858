package instrument

import (
	"errors"
	"sync"
	"time"

	"LabBench/internal/device"
)

// fakePort is an in-memory device.Transport. respond answers request/response
// exchanges; queue feeds receive-only instruments line by line.
type fakePort struct {
	mu      sync.Mutex
	sent    []string
	last    string
	respond func(req string) ([]byte, error)
	queue   [][]byte
}

func (f *fakePort) Open() error { return nil }

func (f *fakePort) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = string(p)
	f.sent = append(f.sent, string(p))
	return nil
}

func (f *fakePort) Receive(timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) > 0 {
		line := f.queue[0]
		f.queue = f.queue[1:]
		return line, nil
	}
	if f.respond == nil {
		return nil, errors.New("nothing to receive")
	}
	return f.respond(f.last)
}

func (f *fakePort) Close() error { return nil }

func (f *fakePort) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func dialFake(f *fakePort) device.DialFunc {
	return func() (device.Transport, error) { return f, nil }
}
