package model

import "time"

const defaultHistoryCap = 60

// ResourcePoint is one sample of hostwide usage stored in the ring buffer.
type ResourcePoint struct {
	Timestamp time.Time
	CPU       float64
	Mem       float64
	Swap      float64
}

// ResourceHistory is a fixed-size ring buffer of ResourcePoints.
// When the buffer is full, new pushes overwrite the oldest entry.
type ResourceHistory struct {
	buf  []ResourcePoint
	head int // next write position
	size int
}

// NewResourceHistory creates a ResourceHistory with the given capacity.
// If capacity <= 0, 60 is used.
func NewResourceHistory(capacity int) *ResourceHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &ResourceHistory{
		buf: make([]ResourcePoint, capacity),
	}
}

// Push appends a point, overwriting the oldest if full.
func (h *ResourceHistory) Push(p ResourcePoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// PushSnapshot records the known usage figures of snap. Unknown figures are
// stored as 0. Returns false when snap carries no usage at all.
func (h *ResourceHistory) PushSnapshot(snap *InstanceSnapshot) bool {
	r := snap.Resources
	if !r.CPUUsage.Known && !r.MemUsage.Known && !r.SwapUsage.Known {
		return false
	}
	h.Push(ResourcePoint{
		Timestamp: snap.FetchedAt,
		CPU:       r.CPUUsage.Or(0),
		Mem:       r.MemUsage.Or(0),
		Swap:      r.SwapUsage.Or(0),
	})
	return true
}

// Len returns the number of valid entries.
func (h *ResourceHistory) Len() int {
	return h.size
}

// Clear resets the history to empty.
func (h *ResourceHistory) Clear() {
	h.head = 0
	h.size = 0
}

// Values returns the named series oldest first. Valid names: "cpu", "mem",
// "swap".
func (h *ResourceHistory) Values(field string) []float64 {
	out := make([]float64, h.size)
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		p := h.buf[(start+i)%len(h.buf)]
		switch field {
		case "cpu":
			out[i] = p.CPU
		case "mem":
			out[i] = p.Mem
		case "swap":
			out[i] = p.Swap
		}
	}
	return out
}
