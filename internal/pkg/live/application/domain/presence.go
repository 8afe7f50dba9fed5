package live

// PresenceView is the local, per-room viewer list maintained by a consumer.
// The owning viewer's own identity, when present, always sorts first;
// ordering among the others is unspecified and preserved as received.
type PresenceView struct {
	self    Identity
	viewers []Identity
}

// NewPresenceView builds a view owned by self.
func NewPresenceView(self Identity) *PresenceView {
	return &PresenceView{self: self}
}

// Reset replaces the viewer list wholesale, as received in a presence:state
// frame, then reapplies the self-first rule.
func (p *PresenceView) Reset(viewers []Identity) {
	p.viewers = make([]Identity, len(viewers))
	copy(p.viewers, viewers)
	p.reorder()
}

// Add merges a user:joined delta.
func (p *PresenceView) Add(viewer Identity) {
	p.viewers = append(p.viewers, viewer)
	p.reorder()
}

// Remove merges a user:left delta. Among several equal entries (multiple
// anonymous viewers), the first match is dropped.
func (p *PresenceView) Remove(viewer Identity) {
	for i, v := range p.viewers {
		if v == viewer {
			p.viewers = append(p.viewers[:i], p.viewers[i+1:]...)
			return
		}
	}
}

// Viewers returns the ordered list, self first when present.
func (p *PresenceView) Viewers() []Identity {
	out := make([]Identity, len(p.viewers))
	copy(out, p.viewers)
	return out
}

// Count reports the number of viewers in the room.
func (p *PresenceView) Count() int {
	return len(p.viewers)
}

func (p *PresenceView) reorder() {
	if p.self.Anonymous() {
		return
	}
	for i, v := range p.viewers {
		if v.UserID == p.self.UserID && i > 0 {
			head := p.viewers[i]
			copy(p.viewers[1:i+1], p.viewers[:i])
			p.viewers[0] = head
			return
		}
	}
}
