package server

import "sync"

// outbound is one message pushed to every subscriber
type outbound struct {
	event   string // SSE event name, mirrors the JSON "type"
	payload any
}

// hub fans frames and console lines out to websocket and SSE subscribers.
// Slow subscribers lose old messages instead of blocking the frame loop.
type hub struct {
	mu   sync.Mutex
	subs map[chan outbound]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan outbound]struct{})}
}

func (h *hub) subscribe() chan outbound {
	ch := make(chan outbound, 4)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan outbound) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *hub) broadcast(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// Drop the oldest message to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
