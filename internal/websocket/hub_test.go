package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, key string) *Client {
	return &Client{
		key:  key,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "1")
	c2 := mockClient(hub, "1")
	c3 := mockClient(hub, "2")
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount("1"); got != 2 {
		t.Fatalf("session 1 clients = %d, want 2", got)
	}
	hub.Unregister(c1)
	if got := hub.ClientCount("1"); got != 1 {
		t.Fatalf("session 1 clients = %d, want 1", got)
	}
	hub.Unregister(c2)
	hub.Unregister(c3)
	if len(hub.sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(hub.sessions))
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "1")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount("1"); got != 0 {
		t.Fatalf("clients = %d, want 0", got)
	}
}

func TestBroadcastStaysInSession(t *testing.T) {
	hub := NewHub(slog.Default())

	mine := mockClient(hub, "1")
	other := mockClient(hub, "2")
	hub.Register(mine)
	hub.Register(other)

	hub.Broadcast("1", Message{Type: MessageNotesChanged, Total: 3})

	select {
	case data := <-mine.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != MessageNotesChanged || got.Total != 3 {
			t.Errorf("message = %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case data := <-other.send:
		t.Errorf("other session received %s", data)
	default:
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "1")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast("1", Message{Type: MessageNotesChanged, Total: i})
	}
	// This should drop the message, not block
	hub.Broadcast("1", Message{Type: MessageNotesChanged, Total: 999})

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("queued = %d, want %d", got, sendBufferSize)
	}
}

func TestCloseSession(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "1")
	hub.Register(c)

	hub.CloseSession("1")
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after CloseSession")
	}
	// The client's own deferred Unregister must not panic.
	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "1")
			hub.Register(c)
			hub.Broadcast("1", Message{Type: MessageNotesChanged})
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount("1"); got != 0 {
		t.Errorf("clients = %d, want 0", got)
	}
}
