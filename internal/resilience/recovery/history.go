package recovery

import (
	"sync"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// Attempt records one strategy execution, success or failure.
type Attempt struct {
	Operation domain.OperationType `json:"operation"`
	Strategy  string               `json:"strategy"`
	Success   bool                 `json:"success"`
	Error     string               `json:"error,omitempty"`
	Duration  time.Duration        `json:"duration"`
	Timestamp time.Time            `json:"timestamp"`
}

// Stats aggregates the retained attempt history.
type Stats struct {
	Total      int            `json:"total"`
	Successes  int            `json:"successes"`
	Failures   int            `json:"failures"`
	ByStrategy map[string]int `json:"by_strategy"`
}

// History is a bounded ring buffer of recovery attempts. Appends are O(1)
// and never block result delivery.
type History struct {
	mu   sync.Mutex
	buf  []Attempt
	next int
	full bool
}

// NewHistory creates a ring buffer retaining the last capacity attempts.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{buf: make([]Attempt, capacity)}
}

// Record appends an attempt, overwriting the oldest once full.
func (h *History) Record(a Attempt) {
	h.mu.Lock()
	h.buf[h.next] = a
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
	h.mu.Unlock()
}

// Recent returns up to n attempts, newest first.
func (h *History) Recent(n int) []Attempt {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.next
	if h.full {
		size = len(h.buf)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Attempt, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// Stats summarizes the retained history.
func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.next
	if h.full {
		size = len(h.buf)
	}

	s := Stats{ByStrategy: make(map[string]int)}
	for i := 0; i < size; i++ {
		a := h.buf[i]
		s.Total++
		if a.Success {
			s.Successes++
		} else {
			s.Failures++
		}
		s.ByStrategy[a.Strategy]++
	}
	return s
}
