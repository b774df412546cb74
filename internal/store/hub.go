// internal/store/hub.go
//
// Change-notification fan-out shared by both store backends. One goroutine
// per subscriber drains a coalescing channel: if a subscriber falls behind,
// intermediate snapshots are dropped and only the latest is delivered.

package store

import "sync"

type subscriber struct {
	ch       chan Doc
	onChange func(Doc)
	done     chan struct{}
}

type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]*subscriber // doc id → subscriber set
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]*subscriber)}
}

// subscribe registers a subscriber for one document id and starts its
// delivery goroutine. Returns a cancel func.
func (h *hub) subscribe(id string, onChange func(Doc)) func() {
	sub := &subscriber{
		ch:       make(chan Doc, 1),
		onChange: onChange,
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	key := h.next
	h.next++
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]*subscriber)
	}
	h.subs[id][key] = sub
	h.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[id], key)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			h.mu.Unlock()
			close(sub.done)
		})
	}
}

// publish fans a committed snapshot out to every subscriber of the document.
func (h *hub) publish(doc Doc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[doc.ID] {
		sub.offer(doc)
	}
}

// offer replaces any undelivered snapshot with the newer one. Called with the
// hub lock held, so the drain-then-send pair cannot interleave with another
// producer.
func (s *subscriber) offer(doc Doc) {
	select {
	case s.ch <- doc:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- doc
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case doc := <-s.ch:
			s.onChange(doc)
		}
	}
}
