package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
)

const subscriberBuffer = 100

// hub tracks local subscribers per channel and fans events out to them.
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.PackageEvent]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan *entities.PackageEvent]struct{})}
}

// add registers a new subscriber and reports whether it is the channel's first.
func (h *hub) add(channel string) (chan *entities.PackageEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := len(h.subscribers[channel]) == 0
	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan *entities.PackageEvent]struct{})
	}
	ch := make(chan *entities.PackageEvent, subscriberBuffer)
	h.subscribers[channel][ch] = struct{}{}
	return ch, first
}

// remove closes one subscriber and reports whether the channel has none left.
func (h *hub) remove(channel string, ch chan *entities.PackageEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subscribers, channel)
		return true
	}
	return false
}

// drop closes every subscriber of channel.
func (h *hub) drop(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[channel] {
		close(ch)
	}
	delete(h.subscribers, channel)
}

func (h *hub) channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.subscribers))
	for channel := range h.subscribers {
		out = append(out, channel)
	}
	return out
}

func (h *hub) count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// broadcast delivers without blocking. Full subscribers miss the event.
func (h *hub) broadcast(channel string, event *entities.PackageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}
