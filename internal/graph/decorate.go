package graph

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dm/meshtop-go/internal/client"
)

// Bounds applied during rate normalization. Reporting windows shorter
// than one second are floored before dividing; rates beyond the cap
// are treated as counter glitches and clamped.
const (
	minWindowSeconds = 1.0
	maxRatePerSec    = 50_000_000.0
)

// Counter keys within a TrafficEntry.
const (
	counterRequests = "requests"
	counterErrors   = "errors"
	counterSent     = "sent"
	counterReceived = "received"
)

// Health thresholds over the error share of request traffic, percent.
const (
	failureErrPercent  = 20.0
	degradedErrPercent = 0.1
)

// DecorationError reports a structurally invalid telemetry element.
// Anything short of structural damage decorates with defaults instead
// of failing.
type DecorationError struct {
	ElementID string
	Reason    string
}

func (e *DecorationError) Error() string {
	return fmt.Sprintf("invalid telemetry element %q: %s", e.ElementID, e.Reason)
}

// Decorate annotates raw telemetry with per-second rates normalized
// against the reporting window and a health classification, and merges
// duplicate edges sharing a source/target pair into one entry. It is a
// pure function of its inputs: the same payload and duration always
// produce the same DecoratedData.
//
// The only failure is an edge naming no endpoints; missing or
// malformed metric fields decorate as zero silently.
func Decorate(raw client.GraphElements, duration time.Duration) (DecoratedData, error) {
	seconds := duration.Seconds()
	if seconds < minWindowSeconds {
		seconds = minWindowSeconds
	}

	data := DecoratedData{
		Nodes:     make([]DecoratedNode, 0, len(raw.Elements.Nodes)),
		Edges:     make([]DecoratedEdge, 0, len(raw.Elements.Edges)),
		Duration:  duration,
		Timestamp: raw.Timestamp,
		GraphType: raw.GraphType,
	}

	for _, w := range raw.Elements.Nodes {
		t := normalizeTraffic(w.Data.Traffic, seconds)
		data.Nodes = append(data.Nodes, DecoratedNode{
			Raw:     w.Data,
			Traffic: t,
			Health:  classify(t),
		})
	}

	index := make(map[[2]string]int, len(raw.Elements.Edges))
	for _, w := range raw.Elements.Edges {
		e := w.Data
		if e.Source == "" || e.Target == "" {
			return DecoratedData{}, &DecorationError{ElementID: e.ID, Reason: "edge names no endpoints"}
		}
		t := normalizeTraffic([]client.TrafficEntry{e.Traffic}, seconds)
		dec := DecoratedEdge{
			Raw:          e,
			Traffic:      t,
			Health:       classify(t),
			ResponseTime: parseField(e.ResponseTime),
			MTLSPercent:  parseField(e.IsMTLS),
		}
		key := [2]string{e.Source, e.Target}
		if i, ok := index[key]; ok {
			data.Edges[i] = mergeEdges(data.Edges[i], dec)
			continue
		}
		index[key] = len(data.Edges)
		data.Edges = append(data.Edges, dec)
	}

	return data, nil
}

// normalizeTraffic converts window counters into per-second rates.
// Unknown protocols contribute nothing.
func normalizeTraffic(entries []client.TrafficEntry, seconds float64) Traffic {
	var t Traffic
	for _, entry := range entries {
		switch entry.Protocol {
		case "http":
			r := clampRate(counter(entry, counterRequests) / seconds)
			t.HTTPRate += r
			t.RequestRate += r
			t.ErrorRate += clampRate(counter(entry, counterErrors) / seconds)
		case "grpc":
			r := clampRate(counter(entry, counterRequests) / seconds)
			t.GRPCRate += r
			t.RequestRate += r
			t.ErrorRate += clampRate(counter(entry, counterErrors) / seconds)
		case "tcp":
			b := counter(entry, counterSent) + counter(entry, counterReceived)
			t.TCPRate += clampRate(b / seconds)
		}
	}
	return t
}

// mergeEdges combines two decorated entries for the same source/target
// pair. Rates sum; response time and mTLS share average weighted by
// traffic so the busier entry dominates. The merged entry keeps the
// first entry's wire identity and picks up a destination service from
// either side.
func mergeEdges(a, b DecoratedEdge) DecoratedEdge {
	wa := a.Traffic.RequestRate + a.Traffic.TCPRate
	wb := b.Traffic.RequestRate + b.Traffic.TCPRate
	merged := a
	merged.Traffic.Add(b.Traffic)
	merged.ResponseTime = weightedMean(a.ResponseTime, wa, b.ResponseTime, wb)
	merged.MTLSPercent = weightedMean(a.MTLSPercent, wa, b.MTLSPercent, wb)
	if merged.Raw.DestService == "" {
		merged.Raw.DestService = b.Raw.DestService
		merged.Raw.DestServiceNamespace = b.Raw.DestServiceNamespace
	}
	merged.Health = classify(merged.Traffic)
	return merged
}

func weightedMean(a, wa, b, wb float64) float64 {
	if wa+wb <= 0 {
		return (a + b) / 2
	}
	return (a*wa + b*wb) / (wa + wb)
}

// counter reads one counter value, treating absent or malformed values
// as zero.
func counter(entry client.TrafficEntry, key string) float64 {
	v, err := strconv.ParseFloat(entry.Counters[key], 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseField reads a decimal string field, zero when absent or
// malformed.
func parseField(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// clampRate bounds a rate to [0, maxRatePerSec].
func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > maxRatePerSec {
		return maxRatePerSec
	}
	return r
}

// classify maps normalized traffic to a health state: failure at or
// above 20% errors, degraded above 0.1%, healthy for any other
// observed traffic, unknown when there is no signal at all.
func classify(t Traffic) Health {
	if !t.HasSignal() {
		return HealthUnknown
	}
	if t.RequestRate > 0 {
		p := t.ErrorPercent()
		if p >= failureErrPercent {
			return HealthFailure
		}
		if p > degradedErrPercent {
			return HealthDegraded
		}
	}
	return HealthHealthy
}
