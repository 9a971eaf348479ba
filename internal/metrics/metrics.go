package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	OrdersCreated        = "orders_created"
	OrdersUpdated        = "orders_updated"
	OrderTransitions     = "order_transitions"
	TransitionsRejected  = "order_transitions_refused"
	StockInbound         = "stock_inbound"
	StockOutbound        = "stock_outbound"
	LowStockAlerts       = "low_stock_alerts"
	NotificationsSent    = "notifications_sent"
	NotificationsFailed  = "notifications_failed"
	NotificationsDropped = "notifications_dropped"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out named counters. A nil *Registry is valid and discards
// everything, so components can run without metrics wired.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*Counter)}
}

func (r *Registry) Counter(name string) *Counter {
	if r == nil {
		return &Counter{}
	}

	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Inc(name string) {
	r.Counter(name).Inc()
}

func (r *Registry) Snapshot() map[string]uint64 {
	out := map[string]uint64{}
	if r == nil {
		return out
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

// Handler serves the current counter values as a JSON object with sorted keys.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		snap := r.Snapshot()
		names := make([]string, 0, len(snap))
		for name := range snap {
			names = append(names, name)
		}
		sort.Strings(names)

		type kv struct {
			Name  string `json:"name"`
			Value uint64 `json:"value"`
		}
		body := make([]kv, 0, len(names))
		for _, name := range names {
			body = append(body, kv{Name: name, Value: snap[name]})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"counters": body})
	})
}
