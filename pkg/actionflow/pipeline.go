package actionflow

import "sort"

// pipeline holds the registrations for one action in invocation order:
// higher priority first, registration order within equal priority.
// Callers synchronize through the registry mutex.
type pipeline struct {
	handlers []*registration
}

// insert places reg at its ordered position. If a registration with the
// same ID exists it is removed first, so the replacement takes a fresh
// pipeline position. Reports whether a replacement happened.
func (p *pipeline) insert(reg *registration) (replaced bool) {
	if i := p.indexOf(reg.id); i >= 0 {
		p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
		replaced = true
	}

	// reg.seq is monotonically increasing, so among equal priorities
	// the new registration always lands last.
	i := sort.Search(len(p.handlers), func(i int) bool {
		h := p.handlers[i]
		if h.priority != reg.priority {
			return h.priority < reg.priority
		}
		return h.seq > reg.seq
	})

	p.handlers = append(p.handlers, nil)
	copy(p.handlers[i+1:], p.handlers[i:])
	p.handlers[i] = reg
	return replaced
}

func (p *pipeline) indexOf(id string) int {
	for i, h := range p.handlers {
		if h.id == id {
			return i
		}
	}
	return -1
}

// removeByID removes the registration with the given ID.
// Reports whether anything was removed.
func (p *pipeline) removeByID(id string) bool {
	i := p.indexOf(id)
	if i < 0 {
		return false
	}
	p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
	return true
}

// removeExact removes reg only if the pipeline still holds that exact
// registration. A once-handler replaced by a re-registration under the
// same ID must not evict its replacement.
func (p *pipeline) removeExact(reg *registration) bool {
	for i, h := range p.handlers {
		if h == reg {
			p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// removeByTag removes every registration carrying tag and returns them.
func (p *pipeline) removeByTag(tag string) []*registration {
	var removed []*registration
	kept := p.handlers[:0]
	for _, h := range p.handlers {
		if h.hasTag(tag) {
			removed = append(removed, h)
			continue
		}
		kept = append(kept, h)
	}
	p.handlers = kept
	return removed
}

// ids returns the handler IDs in invocation order.
func (p *pipeline) ids() []string {
	ids := make([]string, len(p.handlers))
	for i, h := range p.handlers {
		ids[i] = h.id
	}
	return ids
}

// snapshot copies the handler list so dispatch iterates a stable view
// while registrations mutate the live pipeline.
func (p *pipeline) snapshot() []*registration {
	snap := make([]*registration, len(p.handlers))
	copy(snap, p.handlers)
	return snap
}
