package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/metrics"
)

// Event is one message fanned out to realtime clients
type Event struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Subscription is one connected client
type Subscription struct {
	ch        chan Event
	transport string
}

// Broker fans events out to SSE and WebSocket clients
type Broker struct {
	clients    map[*Subscription]bool
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan Event
	done       chan struct{}
	mu         sync.RWMutex

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBroker creates a new broker
func NewBroker(logger *zap.Logger, m *metrics.Metrics) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		clients:    make(map[*Subscription]bool),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan Event, 1000),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run starts the broker loop and returns when ctx is done
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for sub := range b.clients {
				delete(b.clients, sub)
				close(sub.ch)
			}
			b.mu.Unlock()
			close(b.done)
			return

		case sub := <-b.register:
			b.mu.Lock()
			b.clients[sub] = true
			total := len(b.clients)
			b.mu.Unlock()
			b.gauge(sub.transport, 1)
			b.logger.Debug("Realtime client connected", zap.String("transport", sub.transport), zap.Int("total", total))

		case sub := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[sub]; ok {
				delete(b.clients, sub)
				close(sub.ch)
				b.gauge(sub.transport, -1)
			}
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.Debug("Realtime client disconnected", zap.String("transport", sub.transport), zap.Int("total", total))

		case ev := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.clients {
				select {
				case sub.ch <- ev:
				default:
					// Skip if client buffer is full to prevent blocking
				}
			}
			b.mu.RUnlock()
			if b.metrics != nil {
				b.metrics.EventsBroadcast.Inc()
			}
		}
	}
}

// Subscribe registers a client and returns its event channel
func (b *Broker) Subscribe(transport string) *Subscription {
	sub := &Subscription{ch: make(chan Event, 10), transport: transport}
	select {
	case b.register <- sub:
	case <-b.done:
		close(sub.ch)
	}
	return sub
}

// Unsubscribe removes a client; its channel is closed by the loop
func (b *Broker) Unsubscribe(sub *Subscription) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// Events returns the channel a subscriber reads from
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// ClientCount returns the number of connected clients
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP handles the SSE endpoint
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := b.Subscribe("sse")
	defer b.Unsubscribe(sub)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				b.logger.Warn("Error marshalling SSE event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data)
			flusher.Flush()
		}
	}
}

// Broadcast sends an event to all connected clients; it drops when the buffer is full
func (b *Broker) Broadcast(event string, payload interface{}) {
	ev := Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()}
	select {
	case b.broadcast <- ev:
	default:
		b.logger.Warn("⚠️  Broadcast buffer full, dropping event", zap.String("event", event))
	}
}

func (b *Broker) gauge(transport string, delta float64) {
	if b.metrics != nil {
		b.metrics.RealtimeClients.WithLabelValues(transport).Add(delta)
	}
}
