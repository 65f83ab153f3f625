package realtime

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeConn flags any overlapping WriteJSON calls; the websocket library
// forbids concurrent writers on one connection.
type fakeConn struct {
	writing    int32
	overlapped int32
	writes     int32
	block      chan struct{} // non-nil: WriteJSON parks until closed
}

func (f *fakeConn) WriteJSON(interface{}) error {
	if !atomic.CompareAndSwapInt32(&f.writing, 0, 1) {
		atomic.StoreInt32(&f.overlapped, 1)
		return nil
	}
	if f.block != nil {
		<-f.block
	}
	atomic.AddInt32(&f.writes, 1)
	atomic.StoreInt32(&f.writing, 0)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error { return nil }

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// subscribe parks a fake connection in the room the way Handler does and
// returns a channel closed once its writer goroutine has exited.
func subscribe(h *Hub, accountID string, conn wsConn) (*client, chan struct{}) {
	cl := &client{conn: conn, outbox: make(chan Event, outboxSize), done: make(chan struct{})}
	h.join(accountID, cl)
	stopped := make(chan struct{})
	go func() {
		h.writeLoop(accountID, cl)
		close(stopped)
	}()
	return cl, stopped
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}
	cl, stopped := subscribe(hub, "acc-1", conn)

	hub.Publish("acc-1", Event{Type: EventSecurityAlert, Message: "test"})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&conn.writes) == 1
	}, time.Second, 5*time.Millisecond)

	hub.leave("acc-1", cl)
	<-stopped
}

func TestPublish_SingleWriterPerConnection(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}
	cl, stopped := subscribe(hub, "acc-1", conn)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish("acc-1", Event{Type: EventSecurityUpdate})
			}
		}()
	}
	wg.Wait()

	hub.leave("acc-1", cl)
	<-stopped

	assert.Zero(t, atomic.LoadInt32(&conn.overlapped), "writes must never overlap")
}

func TestPublish_SlowClientIsDroppedWithoutBlocking(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{block: make(chan struct{})}
	_, stopped := subscribe(hub, "acc-1", conn)

	start := time.Now()
	for i := 0; i < outboxSize+2; i++ {
		hub.Publish("acc-1", Event{Type: EventSecurityUpdate})
	}
	assert.Less(t, time.Since(start), writeWait, "a stalled peer must not stall Publish")

	hub.mu.RLock()
	_, present := hub.rooms["acc-1"]
	hub.mu.RUnlock()
	assert.False(t, present, "client with a full outbox is evicted")

	close(conn.block)
	<-stopped
}
