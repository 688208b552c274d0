package notify

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"librarymgmt/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	mu     sync.Mutex
	got    [][]byte
	fail   bool
	closed bool
}

func (f *fakeSub) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("dead connection")
	}
	f.got = append(f.got, msg)
	return nil
}

func (f *fakeSub) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSub) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.got...)
}

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConnectDisconnect(t *testing.T) {
	h := newTestHub()
	s := &fakeSub{}

	h.Connect(s)
	require.Equal(t, 1, h.Count())

	h.Disconnect(s)
	require.Equal(t, 0, h.Count())

	// disconnecting an absent observer is a no-op
	h.Disconnect(s)
	require.Equal(t, 0, h.Count())
}

func TestBroadcastPayload(t *testing.T) {
	h := newTestHub()
	s := &fakeSub{}
	h.Connect(s)

	h.BroadcastBookUpdate(model.Book{
		ID:            3,
		Title:         "Dune",
		Genre:         "scifi",
		ShelfLocation: "A1",
		Available:     false,
	})

	msgs := s.messages()
	require.Len(t, msgs, 1)

	var ev BookUpdate
	require.NoError(t, jsoniter.Unmarshal(msgs[0], &ev))
	require.Equal(t, "book_update", ev.Event)
	require.Equal(t, int64(3), ev.BookID)
	require.Equal(t, "Dune", ev.Title)
	require.Equal(t, "scifi", ev.Genre)
	require.Equal(t, "A1", ev.ShelfLocation)
	require.False(t, ev.Available)
}

func TestBroadcastEvictsFailingObserver(t *testing.T) {
	h := newTestHub()
	healthy := &fakeSub{}
	dead := &fakeSub{fail: true}
	h.Connect(healthy)
	h.Connect(dead)

	h.BroadcastBookUpdate(model.Book{ID: 1, Title: "Dune", Available: true})

	// the failure removed only the dead observer
	require.Equal(t, 1, h.Count())
	require.Len(t, healthy.messages(), 1)
	require.True(t, dead.closed)

	h.BroadcastBookUpdate(model.Book{ID: 1, Title: "Dune", Available: false})
	require.Len(t, healthy.messages(), 2)
}

func TestBroadcastToNobody(t *testing.T) {
	h := newTestHub()
	h.BroadcastBookUpdate(model.Book{ID: 1})
	require.Equal(t, 0, h.Count())
}

func TestShutdownClosesAll(t *testing.T) {
	h := newTestHub()
	a, b := &fakeSub{}, &fakeSub{}
	h.Connect(a)
	h.Connect(b)

	h.Shutdown()
	require.Equal(t, 0, h.Count())
	require.True(t, a.closed)
	require.True(t, b.closed)
}

func TestConcurrentConnectBroadcast(t *testing.T) {
	h := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := &fakeSub{}
			h.Connect(s)
			h.Disconnect(s)
		}()
		go func() {
			defer wg.Done()
			h.BroadcastBookUpdate(model.Book{ID: 1, Available: true})
		}()
	}
	wg.Wait()
	require.Equal(t, 0, h.Count())
}
