// Package app implements the live housekeeping monitor: a small web server
// that stores the latest record per device in BoltDB and pushes every record
// to websocket clients as JSON. It consumes records as a device.Sink; the
// driver core does not depend on it.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.etcd.io/bbolt"

	"LabBench/internal/device"
	"LabBench/internal/util"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

var recordBucket = []byte("records")

// Monitor is the live feed server.
type Monitor struct {
	db     *bbolt.DB
	mux    *http.ServeMux
	server *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewMonitor opens the record store at dbPath and registers the routes.
func NewMonitor(dbPath string) (*Monitor, error) {
	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("[monitor] failed to open BoltDB: %w", err)
	}

	m := &Monitor{
		db:      db,
		mux:     http.NewServeMux(),
		clients: map[*websocket.Conn]bool{},
	}
	m.mux.HandleFunc("/ws", m.handleWS)
	m.mux.HandleFunc("/api/latest", m.handleLatest)
	return m, nil
}

// Emit implements device.Sink: the record replaces the device's stored state
// and is broadcast to all websocket clients.
func (m *Monitor) Emit(rec device.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	err = m.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(recordBucket)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(rec.DeviceID), b)
	})
	if err != nil {
		return fmt.Errorf("[monitor] failed to store record: %w", err)
	}

	m.broadcast(b)
	return nil
}

// Start launches the web server and blocks until stopped.
func (m *Monitor) Start(addr string) error {
	if addr == "" {
		util.Info("[monitor] live feed not started (empty address)")
		return nil
	}

	addr = strings.TrimPrefix(addr, "http://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	m.server = &http.Server{Addr: addr, Handler: m.mux}
	util.Info("[monitor] live feed listening at http://%s", addr)

	if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[monitor] HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the web server and closes the record store.
func (m *Monitor) Stop() {
	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			util.Error("[monitor] HTTP server shutdown error: %v", err)
		}
	}

	m.mu.Lock()
	for c := range m.clients {
		_ = c.Close()
	}
	m.clients = map[*websocket.Conn]bool{}
	m.mu.Unlock()

	if err := m.db.Close(); err != nil {
		util.Error("[monitor] error closing BoltDB: %v", err)
	}
}

// handleLatest serves the most recent record of every device as a JSON map
// keyed by device ID.
func (m *Monitor) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := map[string]json.RawMessage{}
	err := m.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(recordBucket)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			latest[string(k)] = json.RawMessage(append([]byte(nil), v...))
			return nil
		})
	})
	if err != nil {
		http.Error(w, "failed to read records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		util.Error("[monitor] failed to write latest records: %v", err)
	}
}

// handleWS upgrades HTTP to websocket and registers the client for record
// broadcasts.
func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			if err := conn.Close(); err != nil {
				util.Warn("[monitor] failed to close websocket: %v", err)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcast sends a record to all connected websocket clients.
func (m *Monitor) broadcast(msg []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		_ = c.WriteMessage(websocket.TextMessage, msg)
	}
}
