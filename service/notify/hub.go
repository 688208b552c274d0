package notify

import (
	"log/slog"
	"sync"

	"librarymgmt/model"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookUpdate is the wire payload fanned out to admin observers after every
// borrow or return. It is a full snapshot of the book's public fields.
type BookUpdate struct {
	Event         string `json:"event"`
	BookID        int64  `json:"book_id"`
	Title         string `json:"title"`
	Available     bool   `json:"available"`
	Genre         string `json:"genre"`
	ShelfLocation string `json:"shelf_location"`
}

// Subscriber is one connected observer. Send must not block: a transport
// adapter is expected to buffer and report a full buffer as an error.
type Subscriber interface {
	Send(msg []byte) error
	Close()
}

// Hub owns the set of live admin observers. It is constructed at service
// start and shut down with the process; all access to the set goes through
// its mutex.
type Hub struct {
	mu   sync.Mutex
	subs map[Subscriber]struct{}
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[Subscriber]struct{}),
		log:  log,
	}
}

func (h *Hub) Connect(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Info("observer connected", "total", n)
}

// Disconnect is idempotent; removing an absent observer is a no-op.
func (h *Hub) Disconnect(s Subscriber) {
	h.mu.Lock()
	_, present := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	if present {
		h.log.Info("observer disconnected", "total", n)
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// BroadcastBookUpdate delivers a book snapshot to every current observer.
// Delivery is best effort: a failed observer is dropped and the failure is
// only logged. The set is snapshotted so a slow observer never holds the
// lock against Connect/Disconnect.
func (h *Hub) BroadcastBookUpdate(b model.Book) {
	ev := BookUpdate{
		Event:         "book_update",
		BookID:        b.ID,
		Title:         b.Title,
		Available:     b.Available,
		Genre:         b.Genre,
		ShelfLocation: b.ShelfLocation,
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal book_update", "err", err)
		return
	}

	h.mu.Lock()
	targets := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			h.log.Warn("observer dropped", "book_id", b.ID, "err", err)
			h.Disconnect(s)
			s.Close()
		}
	}
}

// Shutdown closes every observer and empties the set.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	targets := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.subs = make(map[Subscriber]struct{})
	h.mu.Unlock()

	for _, s := range targets {
		s.Close()
	}
}
