package live

// Identity is the resolved subject bound to a connection after the handshake.
// The zero value is the anonymous marker.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Anonymous reports whether the identity is the anonymous marker.
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}
