package tracking

import (
	"sync"

	"github.com/aau-transit/bustrack/internal/model"
)

// subscriberBuffer is how many snapshots a slow subscriber may fall behind before
// newer ones are dropped for it.
const subscriberBuffer = 8

type subscriber chan model.LiveSnapshot

// hub fans snapshots out to in-process subscribers, keyed by bus number.
type hub struct {
	mu   sync.Mutex
	subs map[int]map[subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: map[int]map[subscriber]struct{}{}}
}

func (h *hub) subscribe(busNumber int) (<-chan model.LiveSnapshot, func()) {
	ch := make(subscriber, subscriberBuffer)

	h.mu.Lock()
	if h.subs[busNumber] == nil {
		h.subs[busNumber] = map[subscriber]struct{}{}
	}
	h.subs[busNumber][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[busNumber], ch)
			if len(h.subs[busNumber]) == 0 {
				delete(h.subs, busNumber)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (h *hub) broadcast(snapshot model.LiveSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[snapshot.BusNumber] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (h *hub) count(busNumber int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[busNumber])
}
