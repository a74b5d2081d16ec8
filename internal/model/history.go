package model

import "time"

const defaultHistoryCap = 60

// TrafficPoint is a single timestamped sample stored in the ring buffer.
type TrafficPoint struct {
	Timestamp    time.Time
	RequestRate  float64
	ErrorRate    float64
	TCPRate      float64
	ResponseTime float64
}

// TrafficHistory keeps the most recent TrafficPoints in a fixed-size ring.
// Once full, each push evicts the oldest sample.
type TrafficHistory struct {
	buf []TrafficPoint
	n   int // total points pushed since the last Clear
}

// NewTrafficHistory creates a TrafficHistory with the given capacity.
// If cap <= 0, the defaultHistoryCap (60) is used.
func NewTrafficHistory(capacity int) *TrafficHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &TrafficHistory{
		buf: make([]TrafficPoint, capacity),
	}
}

// Push appends a new point, overwriting the oldest if full.
func (h *TrafficHistory) Push(p TrafficPoint) {
	h.buf[h.n%len(h.buf)] = p
	h.n++
}

// Len returns the number of valid entries in the history.
func (h *TrafficHistory) Len() int {
	if h.n > len(h.buf) {
		return len(h.buf)
	}
	return h.n
}

// Clear resets the history to empty.
func (h *TrafficHistory) Clear() {
	h.n = 0
}

// Values returns the named series oldest-first. Valid field names:
// "requestRate", "errorRate", "tcpRate", "responseTime"; anything else
// yields zeros.
func (h *TrafficHistory) Values(field string) []float64 {
	var sel func(TrafficPoint) float64
	switch field {
	case "requestRate":
		sel = func(p TrafficPoint) float64 { return p.RequestRate }
	case "errorRate":
		sel = func(p TrafficPoint) float64 { return p.ErrorRate }
	case "tcpRate":
		sel = func(p TrafficPoint) float64 { return p.TCPRate }
	case "responseTime":
		sel = func(p TrafficPoint) float64 { return p.ResponseTime }
	default:
		sel = func(TrafficPoint) float64 { return 0 }
	}

	n := h.Len()
	out := make([]float64, n)
	for i := range out {
		out[i] = sel(h.buf[(h.n-n+i)%len(h.buf)])
	}
	return out
}
