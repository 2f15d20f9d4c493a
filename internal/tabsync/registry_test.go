package tabsync

import (
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	conn := &websocket.Conn{}
	deviceID := "anon_device123"
	tabID := "tab-1"

	r.Register(deviceID, tabID, conn)

	active := r.GetActive(deviceID, tabID)
	if active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	conn := &websocket.Conn{}
	deviceID := "anon_device123"
	tabID := "tab-1"

	r.Register(deviceID, tabID, conn)
	r.Unregister(deviceID, tabID, conn)

	active := r.GetActive(deviceID, tabID)
	if active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
}

func TestRegistry_UnregisterStale(t *testing.T) {
	r := NewRegistry()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}
	deviceID := "anon_device123"
	tab1 := "tab-1"
	tab2 := "tab-2"

	r.Register(deviceID, tab1, conn1)

	// Another tab should remain active when a stale unregister happens.
	r.Register(deviceID, tab2, conn2)

	r.Unregister(deviceID, tab1, conn1)

	active := r.GetActive(deviceID, tab2)
	if active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	deviceID := "anon_concurrent"

	go func() {
		for i := 0; i < 1000; i++ {
			r.Register(deviceID, "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()

	go func() {
		for i := 0; i < 1000; i++ {
			r.GetActive(deviceID, "tab-"+strconv.Itoa(i))
		}
	}()

	time.Sleep(100 * time.Millisecond)
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("changed", "agents-manager-chat-state", "tab-1")

	if ev.Kind != "changed" || ev.Key != "agents-manager-chat-state" || ev.OriginTab != "tab-1" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if age := time.Since(time.UnixMilli(ev.At)); age > time.Minute {
		t.Errorf("Expected recent timestamp, got age %s", age)
	}
}
