package util

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// SocatManager tracks socat processes backing virtual serial pairs so that a
// simulated instrument and its driver can talk over real PTY device nodes.
type SocatManager struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewSocatManager initializes an empty manager.
func NewSocatManager() *SocatManager {
	return &SocatManager{}
}

// CreatePair starts a socat process linking two PTYs bidirectionally, with the
// driver side at left and the simulated instrument at right. It waits for both
// links to appear before returning.
func (m *SocatManager) CreatePair(left, right string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(
		"socat",
		fmt.Sprintf("pty,raw,echo=0,link=%s", left),
		fmt.Sprintf("pty,raw,echo=0,link=%s", right),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start socat: %w", err)
	}

	if err := waitForLinks(left, right); err != nil {
		_ = cmd.Process.Kill()
		return err
	}

	Info("virt-serial: socat pid=%d  %s <-> %s", cmd.Process.Pid, left, right)

	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, left, right)
	return nil
}

// Cleanup stops all socat processes and removes the created links. Safe to
// call more than once.
func (m *SocatManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}

	for _, path := range m.links {
		if _, err := os.Lstat(path); err == nil {
			_ = os.Remove(path)
		}
	}

	Info("virt-serial: cleaned up %d pair(s)", len(m.links)/2)
}

func waitForLinks(paths ...string) error {
	deadline := time.Now().Add(3 * time.Second)
	for {
		ready := 0
		for _, p := range paths {
			if _, err := os.Lstat(p); err == nil {
				ready++
			}
		}
		if ready == len(paths) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("virtual serial links not ready: %v", paths)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
