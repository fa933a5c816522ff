package predict

import "sync/atomic"

// Holder publishes the active Pipeline. The zero value holds nil.
type Holder struct {
	p atomic.Pointer[Pipeline]
}

// NewHolder returns a Holder serving p.
func NewHolder(p *Pipeline) *Holder {
	h := &Holder{}
	h.p.Store(p)
	return h
}

// Current returns the active Pipeline.
func (h *Holder) Current() *Pipeline {
	return h.p.Load()
}

// Swap makes p the active Pipeline and returns the previous one.
// Requests already running keep using the pipeline they started with.
func (h *Holder) Swap(p *Pipeline) *Pipeline {
	return h.p.Swap(p)
}
