// Package tabsync provides WebSocket-based cross-tab state synchronization.
// Browser storage has no cross-tab coordination; the hub closes that gap by
// fanning state-change events out to every other open tab of a device.
package tabsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event is a state-change notification delivered to sibling tabs. Payloads
// are not carried: tabs re-read the changed key through the HTTP API, so a
// lost event degrades to a stale tab rather than wrong data.
type Event struct {
	Kind      string `json:"kind"` // "changed" or "removed"
	Key       string `json:"key"`
	OriginTab string `json:"origin_tab"`
	At        int64  `json:"at"` // epoch milliseconds
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind, key, originTab string) Event {
	return Event{Kind: kind, Key: key, OriginTab: originTab, At: time.Now().UnixMilli()}
}

// Registry manages active WebSocket connections per device and tab.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewRegistry creates a new connection registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a device and tab.
func (r *Registry) GetActive(deviceID, tabID string) *websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tabs, ok := r.active[deviceID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds a new WebSocket connection for a device/tab. A duplicate
// tab ID closes the previous connection.
func (r *Registry) Register(deviceID, tabID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[deviceID]; !exists {
		r.active[deviceID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := r.active[deviceID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "tab replaced")
	}

	r.active[deviceID][tabID] = conn
	slog.Info("Tab registered", "device_id", deviceID, "tab_id", tabID)
}

// Unregister removes a WebSocket connection for a device/tab.
func (r *Registry) Unregister(deviceID, tabID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tabs, ok := r.active[deviceID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(r.active, deviceID)
			}
			slog.Info("Tab unregistered", "device_id", deviceID, "tab_id", tabID)
		}
	}
}

// CloseDevice forcefully terminates all active connections for a device.
func (r *Registry) CloseDevice(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tabs, ok := r.active[deviceID]
	if !ok {
		return
	}

	for tabID, conn := range tabs {
		_ = conn.Close(websocket.StatusNormalClosure, "device closed")
		slog.Info("Tab closed", "device_id", deviceID, "tab_id", tabID)
	}
	delete(r.active, deviceID)
}

// Broadcast delivers an event to every tab of the device except the origin.
// Write failures are logged and skipped; the read loop of a dead connection
// handles its own teardown.
func (r *Registry) Broadcast(ctx context.Context, deviceID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to marshal tabsync event", "error", err)
		return
	}

	r.mu.RLock()
	conns := make(map[string]*websocket.Conn)
	for tabID, conn := range r.active[deviceID] {
		if tabID != ev.OriginTab {
			conns[tabID] = conn
		}
	}
	r.mu.RUnlock()

	for tabID, conn := range conns {
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("Tabsync write failed", "device_id", deviceID, "tab_id", tabID, "error", err)
		}
	}
}
